package domain

// Conf is the global configuration blob stored in col.conf.
type Conf struct {
	CurDeck       int64   `json:"curDeck"`
	ActiveDecks   []int64 `json:"activeDecks"`
	NewSpread     int     `json:"newSpread"`
	CollapseTime  int     `json:"collapseTime"`
	TimeLim       int     `json:"timeLim"`
	EstTimes      bool    `json:"estTimes"`
	DueCounts     bool    `json:"dueCounts"`
	CurModel      string  `json:"curModel"`
	NextPos       int     `json:"nextPos"`
	SortType      string  `json:"sortType"`
	SortBackwards bool    `json:"sortBackwards"`
	AddToCur      bool    `json:"addToCur"`
	NewBury       bool    `json:"newBury"`
}

// DConf is one per-deck option group stored in col.dconf.
type DConf struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Mod      int64     `json:"mod"`
	USN      int       `json:"usn"`
	MaxTaken int       `json:"maxTaken"`
	Timer    int       `json:"timer"`
	Autoplay bool      `json:"autoplay"`
	Replayq  bool      `json:"replayq"`
	New      DConfNew  `json:"new"`
	Rev      DConfRev  `json:"rev"`
	Lapse    DConfLaps `json:"lapse"`
}

// DConfNew configures new cards. Emitted as static defaults only.
type DConfNew struct {
	Bury          bool      `json:"bury"`
	Delays        []float64 `json:"delays"`
	InitialFactor int       `json:"initialFactor"`
	Ints          [3]int    `json:"ints"`
	Order         int       `json:"order"`
	PerDay        int       `json:"perDay"`
	Separate      bool      `json:"separate"`
}

// DConfRev configures review cards. Emitted as static defaults only.
type DConfRev struct {
	Bury     bool    `json:"bury"`
	Ease4    float64 `json:"ease4"`
	Fuzz     float64 `json:"fuzz"`
	IvlFct   float64 `json:"ivlFct"`
	MaxIvl   int     `json:"maxIvl"`
	MinSpace int     `json:"minSpace"`
	PerDay   int     `json:"perDay"`
}

// DConfLaps configures lapsed cards. Emitted as static defaults only.
type DConfLaps struct {
	Delays      []float64 `json:"delays"`
	LeechAction int       `json:"leechAction"`
	LeechFails  int       `json:"leechFails"`
	MinInt      int       `json:"minInt"`
	Mult        float64   `json:"mult"`
}
