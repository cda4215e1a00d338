// Package domain holds the entity types frozen into an exported collection:
// decks, note-types (models), notes and cards, plus the configuration blobs
// serialized into the col row. JSON tags follow the consuming application's
// wire format exactly.
package domain

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Deck is one named group of cards. Exactly one deck per package is active;
// its id is injected into every generated card.
type Deck struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Desc      string `json:"desc"`
	Mod       int64  `json:"mod"`
	USN       int    `json:"usn"`
	Collapsed bool   `json:"collapsed"`
	NewToday  [2]int `json:"newToday"`
	RevToday  [2]int `json:"revToday"`
	LrnToday  [2]int `json:"lrnToday"`
	TimeToday [2]int `json:"timeToday"`
	Dyn       int    `json:"dyn"`
	ExtendNew int    `json:"extendNew"`
	ExtendRev int    `json:"extendRev"`
	Conf      int64  `json:"conf"`
}

// Model type discriminator, stored in the "type" key of the model blob.
const (
	ModelStandard = 0
	ModelCloze    = 1
)

// Model is a note-type: the fields shared by a family of notes and the
// templates that expand each note into cards.
type Model struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	DeckID    int64      `json:"did"`
	Fields    []Field    `json:"flds"`
	Templates []Template `json:"tmpls"`
	Type      int        `json:"type"`
	Mod       int64      `json:"mod"`
	USN       int        `json:"usn"`
	SortField int        `json:"sortf"`
	CSS       string     `json:"css"`
	LatexPre  string     `json:"latexPre"`
	LatexPost string     `json:"latexPost"`
	Req       []ReqRule  `json:"req"`
	Tags      []string   `json:"tags"`
	Vers      []int      `json:"vers"`
}

// Cloze reports whether the model uses cloze-deletion card generation.
func (m Model) Cloze() bool { return m.Type == ModelCloze }

// FieldOrd resolves a field name to its ordinal position. Field order is
// semantically significant: template placeholders reference positions.
func (m Model) FieldOrd(name string) (int, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Ord, true
		}
	}
	return 0, false
}

// Field describes one field of a model.
type Field struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Font   string   `json:"font"`
	Size   int      `json:"size"`
	RTL    bool     `json:"rtl"`
	Sticky bool     `json:"sticky"`
	Media  []string `json:"media"`
}

// Template is one rendering template of a model. Qfmt placeholders determine
// which fields a card of this template requires.
type Template struct {
	Name         string `json:"name"`
	Ord          int    `json:"ord"`
	Qfmt         string `json:"qfmt"`
	Afmt         string `json:"afmt"`
	Bqfmt        string `json:"bqfmt"`
	Bafmt        string `json:"bafmt"`
	DeckOverride *int64 `json:"did"`
}

// ReqRule mirrors one entry of the model "req" array: which fields a template
// needs before a card is generated. Serialized as [ord, kind, fieldOrds].
type ReqRule struct {
	TemplateOrd int
	Kind        string // "all", "any" or "none"
	FieldOrds   []int
}

func (r ReqRule) MarshalJSON() ([]byte, error) {
	ords := r.FieldOrds
	if ords == nil {
		ords = []int{}
	}
	return json.Marshal([]any{r.TemplateOrd, r.Kind, ords})
}

func (r *ReqRule) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("req rule: expected 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &r.TemplateOrd); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &r.Kind); err != nil {
		return err
	}
	return json.Unmarshal(raw[2], &r.FieldOrds)
}

// Note is the raw field content authored once; it may back multiple cards.
// A zero GUID means "derive from content". A zero ID means "allocate".
type Note struct {
	ID      int64
	GUID    string
	ModelID int64
	Tags    Tags
	Fields  []string
}

// Card scheduling columns are emitted as fixed new-card defaults; no
// spaced-repetition computation happens during synthesis.
type Card struct {
	ID     int64
	NoteID int64
	DeckID int64
	Ord    int
	Mod    int64
	USN    int
	Type   int
	Queue  int
	Due    int64
	Ivl    int64
	Factor int64
	Reps   int64
	Lapses int64
	Left   int64
	ODue   int64
	ODid   int64
	Flags  int64
	Data   string
}

// NewCard returns a card in the new-card state the consuming application
// expects for freshly imported packages.
func NewCard(id, noteID, deckID int64, ord int, mod int64) Card {
	return Card{
		ID:     id,
		NoteID: noteID,
		DeckID: deckID,
		Ord:    ord,
		Mod:    mod,
		USN:    -1,
		Due:    179,
	}
}
