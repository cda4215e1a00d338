package schema

import "github.com/conorfennell/apkg/internal/domain"

// DefaultKey is the map key of the seeded default deck and default model.
// The initializer guarantees exactly one default of each exists before
// grafting; grafting replaces that single entity.
const DefaultKey = "1"

// DefaultDeckID and DefaultDConfID are fixed by the base layout.
const (
	DefaultDeckID  = 1
	DefaultDConfID = 1
)

const defaultCSS = `.card {
 font-family: arial;
 font-size: 20px;
 text-align: center;
 color: black;
 background-color: white;
}
`

const (
	defaultLatexPre = `\documentclass[12pt]{article}
\special{papersize=3in,5in}
\usepackage[utf8]{inputenc}
\usepackage{amssymb,amsmath}
\pagestyle{empty}
\setlength{\parindent}{0in}
\begin{document}
`
	defaultLatexPost = `\end{document}`
)

// DefaultConf returns the global configuration blob pointing at the default
// deck; the initializer repoints curDeck/activeDecks/curModel after grafting.
func DefaultConf() domain.Conf {
	return domain.Conf{
		CurDeck:      DefaultDeckID,
		ActiveDecks:  []int64{DefaultDeckID},
		NewSpread:    0,
		CollapseTime: 1200,
		TimeLim:      0,
		EstTimes:     true,
		DueCounts:    true,
		CurModel:     DefaultKey,
		NextPos:      1,
		SortType:     "noteFld",
		AddToCur:     true,
		NewBury:      true,
	}
}

// DefaultDConf returns the single default option group, id fixed at 1.
func DefaultDConf(mod int64) domain.DConf {
	return domain.DConf{
		ID:       DefaultDConfID,
		Name:     "Default",
		Mod:      mod,
		MaxTaken: 60,
		Autoplay: true,
		Replayq:  true,
		New: domain.DConfNew{
			Bury:          true,
			Delays:        []float64{1, 10},
			InitialFactor: 2500,
			Ints:          [3]int{1, 4, 7},
			Order:         1,
			PerDay:        20,
			Separate:      true,
		},
		Rev: domain.DConfRev{
			Bury:     true,
			Ease4:    1.3,
			Fuzz:     0.05,
			IvlFct:   1,
			MaxIvl:   36500,
			MinSpace: 1,
			PerDay:   100,
		},
		Lapse: domain.DConfLaps{
			Delays:      []float64{10},
			LeechAction: 0,
			LeechFails:  8,
			MinInt:      1,
			Mult:        0,
		},
	}
}

// DefaultDeck returns the seeded default deck, id fixed at 1.
func DefaultDeck(mod int64) domain.Deck {
	return domain.Deck{
		ID:        DefaultDeckID,
		Name:      "Default",
		Mod:       mod,
		ExtendNew: 10,
		ExtendRev: 50,
		Conf:      DefaultDConfID,
	}
}

// NewDeck builds a caller deck carrying the default option group.
func NewDeck(id int64, name, desc string, mod int64) domain.Deck {
	d := DefaultDeck(mod)
	d.ID = id
	d.Name = name
	d.Desc = desc
	return d
}

// NewField builds a field with the display defaults at the given position.
func NewField(name string, ord int) domain.Field {
	return domain.Field{
		Name:  name,
		Ord:   ord,
		Font:  "Arial",
		Size:  20,
		Media: []string{},
	}
}

// DefaultModel returns the seeded two-field note-type: one Front/Back template
// producing a single card per note.
func DefaultModel(mod int64) domain.Model {
	return domain.Model{
		ID:   1,
		Name: "Default",
		Fields: []domain.Field{
			NewField("Front", 0),
			NewField("Back", 1),
		},
		Templates: []domain.Template{
			{
				Name: "Card 1",
				Qfmt: "{{Front}}",
				Afmt: "{{FrontSide}}\n\n<hr id=\"answer\">\n\n{{Back}}",
			},
		},
		Type:      domain.ModelStandard,
		Mod:       mod,
		CSS:       defaultCSS,
		LatexPre:  defaultLatexPre,
		LatexPost: defaultLatexPost,
		Req: []domain.ReqRule{
			{TemplateOrd: 0, Kind: "all", FieldOrds: []int{0}},
		},
		Tags: []string{},
		Vers: []int{},
	}
}

// ClozeModel returns the cloze-deletion note-type variant: a single Text field
// whose embedded {{cN::...}} markers determine card count and ordinals.
func ClozeModel(mod int64) domain.Model {
	m := DefaultModel(mod)
	m.Fields = []domain.Field{
		NewField("Text", 0),
		NewField("Extra", 1),
	}
	m.Templates = []domain.Template{
		{
			Name: "Cloze",
			Qfmt: "{{cloze:Text}}",
			Afmt: "{{cloze:Text}}<br>\n{{Extra}}",
		},
	}
	m.Type = domain.ModelCloze
	m.Req = []domain.ReqRule{
		{TemplateOrd: 0, Kind: "any", FieldOrds: []int{0}},
	}
	return m
}
