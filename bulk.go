package apkg

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/apkg/internal/collection"
	"github.com/conorfennell/apkg/internal/domain"
	"github.com/conorfennell/apkg/internal/ident"
	"github.com/conorfennell/apkg/internal/schema"
)

var validate = validator.New()

// CollectionSpec is the bulk input: every deck and note-type of the package,
// with notes embedded in their note-types, constructed in one pass without
// incremental calls.
type CollectionSpec struct {
	Decks     []DeckSpec  `validate:"min=1,dive"`
	NoteTypes []ModelSpec `validate:"min=1,dive"`
}

// DeckSpec describes one deck. A zero ID is allocated; caller ids are honored
// when they do not collide with ids already handed out.
type DeckSpec struct {
	ID          int64
	Name        string `validate:"required"`
	Description string
}

// ModelSpec describes one note-type and its notes. A zero DeckID targets the
// spec's first deck.
type ModelSpec struct {
	ID        int64
	Name      string   `validate:"required"`
	DeckID    int64
	Fields    []string       `validate:"min=1"`
	Templates []TemplateSpec `validate:"min=1,dive"`
	Cloze     bool
	CSS       string
	Notes     []Note `validate:"dive"`
}

// TemplateSpec describes one rendering template.
type TemplateSpec struct {
	Name     string
	Question string `validate:"required"`
	Answer   string
}

// BuildCollection constructs an entire collection snapshot from spec and
// returns the exported database bytes. Ids are assigned by the
// running-counter policy, so output is deterministic for a fixed input and
// clock.
func BuildCollection(eng Engine, spec CollectionSpec, opts ...Option) ([]byte, error) {
	if err := validate.Struct(spec); err != nil {
		return nil, fmt.Errorf("invalid collection spec: %w", err)
	}

	cfg := sessionConfig{clock: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	col, err := collection.Open(eng, cfg.clock)
	if err != nil {
		return nil, err
	}

	millis := ident.Millis(cfg.clock())
	seq := ident.NewSequence(millis)

	// Caller ids survive when the sequence honors them; everything else is
	// remapped, so cross-references go through the translation table.
	deckIDs := make(map[int64]int64, len(spec.Decks))
	var firstDeckID int64
	for _, d := range spec.Decks {
		id := seq.Next(d.ID)
		if d.ID != 0 {
			deckIDs[d.ID] = id
		}
		if firstDeckID == 0 {
			firstDeckID = id
		}
		if err := col.AddDeck(schema.NewDeck(id, d.Name, d.Description, millis)); err != nil {
			return nil, err
		}
	}

	for _, m := range spec.NoteTypes {
		modelID := seq.Next(m.ID)
		deckID := firstDeckID
		if m.DeckID != 0 {
			var ok bool
			if deckID, ok = deckIDs[m.DeckID]; !ok {
				return nil, fmt.Errorf("invalid collection spec: note-type %q references unknown deck %d", m.Name, m.DeckID)
			}
		}

		model := buildBulkModel(m, modelID, deckID, millis)
		if err := col.AddModel(model); err != nil {
			return nil, err
		}

		for _, n := range m.Notes {
			note := domain.Note{
				ID:      seq.Next(0),
				GUID:    n.GUID,
				ModelID: modelID,
				Tags:    n.tags(),
				Fields:  n.Fields,
			}
			if _, err := col.AddNote(deckID, note); err != nil {
				return nil, err
			}
		}
	}

	return col.Export()
}

func buildBulkModel(m ModelSpec, id, deckID, millis int64) domain.Model {
	model := schema.DefaultModel(millis)
	model.ID = id
	model.Name = m.Name
	model.DeckID = deckID
	if m.Cloze {
		model.Type = domain.ModelCloze
	}
	if m.CSS != "" {
		model.CSS = m.CSS
	}

	fields := make([]domain.Field, len(m.Fields))
	for i, name := range m.Fields {
		fields[i] = schema.NewField(name, i)
	}
	model.Fields = fields

	templates := make([]domain.Template, len(m.Templates))
	for i, t := range m.Templates {
		templates[i] = domain.Template{
			Name: t.Name,
			Ord:  i,
			Qfmt: t.Question,
			Afmt: t.Answer,
		}
	}
	model.Templates = templates
	model.Req = collection.ComputeReq(model)
	return model
}
