// Package collection builds the in-memory relational snapshot of a package:
// the singleton col row, note rows and their expanded card rows. All mutation
// is strictly sequential; one Collection owns one engine.
package collection

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/conorfennell/apkg/internal/domain"
	"github.com/conorfennell/apkg/internal/guid"
	"github.com/conorfennell/apkg/internal/ident"
	"github.com/conorfennell/apkg/internal/schema"
)

// Engine is the embedded relational capability. Implementations execute SQL,
// answer single-value probes, and export a binary snapshot exactly once.
type Engine interface {
	Exec(query string, args ...any) error
	QueryInt64(query string, args ...any) (int64, bool, error)
	QueryString(query string, args ...any) (string, bool, error)
	Export() ([]byte, error)
}

// Setup errors are fatal: the session cannot proceed and is not retried.
var (
	ErrNoEngine     = errors.New("collection: no engine supplied")
	ErrNoCollection = errors.New("collection: collection row missing")
	ErrNoDefault    = errors.New("collection: default entry missing")
	ErrNoFields     = errors.New("collection: note has no fields")
	ErrUnknownModel = errors.New("collection: unknown note-type")
)

// Collection is one synthesis session's view of the snapshot under
// construction.
type Collection struct {
	eng    Engine
	now    func() time.Time
	deckID int64
	models map[int64]domain.Model
}

// Open creates the base schema and seeds the singleton col row with one
// default deck, one default model and one default option group.
func Open(eng Engine, now func() time.Time) (*Collection, error) {
	if eng == nil {
		return nil, ErrNoEngine
	}
	if now == nil {
		now = time.Now
	}
	c := &Collection{
		eng:    eng,
		now:    now,
		deckID: schema.DefaultDeckID,
		models: make(map[int64]domain.Model),
	}

	if err := eng.Exec(schema.DDL); err != nil {
		return nil, fmt.Errorf("failed to create base schema: %w", err)
	}

	t := now()
	millis := ident.Millis(t)
	defaultModel := schema.DefaultModel(millis)

	conf, err := json.Marshal(schema.DefaultConf())
	if err != nil {
		return nil, fmt.Errorf("failed to encode conf: %w", err)
	}
	models, err := json.Marshal(map[string]domain.Model{schema.DefaultKey: defaultModel})
	if err != nil {
		return nil, fmt.Errorf("failed to encode models: %w", err)
	}
	decks, err := json.Marshal(map[string]domain.Deck{schema.DefaultKey: schema.DefaultDeck(millis)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode decks: %w", err)
	}
	dconf, err := json.Marshal(map[string]domain.DConf{schema.DefaultKey: schema.DefaultDConf(millis)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode dconf: %w", err)
	}

	crt := ident.Seconds(t)
	if err := eng.Exec(schema.InsertCol, crt, millis, millis,
		string(conf), string(models), string(decks), string(dconf)); err != nil {
		return nil, fmt.Errorf("failed to seed collection row: %w", err)
	}
	if _, ok, err := eng.QueryInt64(`SELECT id FROM col WHERE id = 1`); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNoCollection
	}

	c.models[defaultModel.ID] = defaultModel
	return c, nil
}

// DeckID returns the id of the active deck (the grafted one, once grafted).
func (c *Collection) DeckID() int64 { return c.deckID }

// Graft replaces the seeded default deck and default model with the caller's
// metadata, allocating fresh collision-free ids for both. It returns the
// model id cards will reference.
func (c *Collection) Graft(deckName, desc string, model domain.Model) (int64, error) {
	t := c.now()
	millis := ident.Millis(t)

	deckID, err := c.nextID("cards", "did", millis)
	if err != nil {
		return 0, err
	}
	modelID, err := c.nextID("notes", "mid", millis)
	if err != nil {
		return 0, err
	}

	decks, err := c.getDecks()
	if err != nil {
		return 0, err
	}
	remaining, deck, ok := extractDefault(decks)
	if !ok {
		return 0, ErrNoDefault
	}
	deck.ID = deckID
	deck.Name = deckName
	deck.Desc = desc
	deck.Mod = millis
	remaining[strconv.FormatInt(deckID, 10)] = deck
	if err := c.setDecks(remaining); err != nil {
		return 0, err
	}

	modelMap, err := c.getModels()
	if err != nil {
		return 0, err
	}
	kept, _, ok := extractDefault(modelMap)
	if !ok {
		return 0, ErrNoDefault
	}
	model.ID = modelID
	model.DeckID = deckID
	if model.Name == "" {
		model.Name = deckName
	}
	model.Mod = millis
	kept[strconv.FormatInt(modelID, 10)] = model
	if err := c.setModels(kept); err != nil {
		return 0, err
	}

	conf := schema.DefaultConf()
	conf.CurDeck = deckID
	conf.ActiveDecks = []int64{deckID}
	conf.CurModel = strconv.FormatInt(modelID, 10)
	if err := c.setConf(conf); err != nil {
		return 0, err
	}

	c.deckID = deckID
	clear(c.models)
	c.models[modelID] = model
	return modelID, nil
}

// AddDeck registers an additional deck alongside the existing map entries.
// Used by bulk construction, where the default deck stays in place.
func (c *Collection) AddDeck(d domain.Deck) error {
	decks, err := c.getDecks()
	if err != nil {
		return err
	}
	decks[strconv.FormatInt(d.ID, 10)] = d
	return c.setDecks(decks)
}

// AddModel registers an additional note-type alongside the existing entries.
func (c *Collection) AddModel(m domain.Model) error {
	models, err := c.getModels()
	if err != nil {
		return err
	}
	models[strconv.FormatInt(m.ID, 10)] = m
	if err := c.setModels(models); err != nil {
		return err
	}
	c.models[m.ID] = m
	return nil
}

// AddNote upserts one note row and expands it into card rows under deckID.
// A zero note.ModelID targets the grafted model. It returns the number of
// cards emitted; zero cards is a policy outcome, not an error.
func (c *Collection) AddNote(deckID int64, note domain.Note) (int, error) {
	if len(note.Fields) == 0 {
		return 0, ErrNoFields
	}
	modelID := note.ModelID
	if modelID == 0 {
		modelID = c.graftedModelID()
	}
	model, ok := c.models[modelID]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownModel, modelID)
	}
	if deckID == 0 {
		deckID = c.deckID
	}

	t := c.now()
	millis := ident.Millis(t)
	joined := guid.JoinFields(note.Fields)

	g := note.GUID
	if g == "" {
		g = guid.NoteGUID(joined)
	}

	// Re-adding identical content updates in place: an existing guid wins
	// over any caller-supplied id, keeping the note/card linkage intact.
	noteID := note.ID
	if existing, ok, err := c.eng.QueryInt64(
		`SELECT id FROM notes WHERE guid = ? ORDER BY id DESC LIMIT 1`, g); err != nil {
		return 0, err
	} else if ok {
		noteID = existing
	} else if noteID == 0 {
		noteID, err = c.nextID("notes", "id", millis)
		if err != nil {
			return 0, err
		}
	}

	mod, err := c.nextID("notes", "mod", millis)
	if err != nil {
		return 0, err
	}

	err = c.eng.Exec(
		`INSERT OR REPLACE INTO notes VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		noteID,
		g,
		modelID,
		mod,
		-1,
		domain.FormatTags(note.Tags),
		joined,
		note.Fields[0],
		guid.Checksum(joined),
		0,
		"",
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert note %s: %w", g, err)
	}

	ords := CardOrdinals(model, note.Fields)
	for _, ord := range ords {
		if err := c.addCard(noteID, deckID, ord, millis); err != nil {
			return 0, err
		}
	}
	return len(ords), nil
}

func (c *Collection) addCard(noteID, deckID int64, ord int, millis int64) error {
	cardID, ok, err := c.eng.QueryInt64(
		`SELECT id FROM cards WHERE nid = ? AND ord = ? ORDER BY id DESC LIMIT 1`,
		noteID, ord)
	if err != nil {
		return err
	}
	if !ok {
		cardID, err = c.nextID("cards", "id", millis)
		if err != nil {
			return err
		}
	}
	mod, err := c.nextID("cards", "mod", millis)
	if err != nil {
		return err
	}

	card := domain.NewCard(cardID, noteID, deckID, ord, mod)
	err = c.eng.Exec(
		`INSERT OR REPLACE INTO cards VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.ID, card.NoteID, card.DeckID, card.Ord, card.Mod, card.USN,
		card.Type, card.Queue, card.Due, card.Ivl, card.Factor, card.Reps,
		card.Lapses, card.Left, card.ODue, card.ODid, card.Flags, card.Data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card for note %d: %w", noteID, err)
	}
	return nil
}

// Export returns the snapshot bytes. The engine performs exactly one export;
// the collection is unusable afterwards.
func (c *Collection) Export() ([]byte, error) {
	return c.eng.Export()
}

// nextID is the clock-derived id policy with a collision probe: query the
// maximum existing value at or above the seed and step past it, otherwise the
// seed itself is free.
func (c *Collection) nextID(table, column string, seed int64) (int64, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s >= ? ORDER BY %s DESC LIMIT 1",
		column, table, column, column,
	)
	v, ok, err := c.eng.QueryInt64(query, seed)
	if err != nil {
		return 0, err
	}
	if ok {
		return v + 1, nil
	}
	return seed, nil
}

func (c *Collection) graftedModelID() int64 {
	// One grafted model in the session path; bulk callers always set ModelID.
	for id := range c.models {
		return id
	}
	return 0
}

func (c *Collection) getDecks() (map[string]domain.Deck, error) {
	var decks map[string]domain.Deck
	if err := c.getBlob("decks", &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

func (c *Collection) setDecks(decks map[string]domain.Deck) error {
	return c.setBlob("decks", decks)
}

func (c *Collection) getModels() (map[string]domain.Model, error) {
	var models map[string]domain.Model
	if err := c.getBlob("models", &models); err != nil {
		return nil, err
	}
	return models, nil
}

func (c *Collection) setModels(models map[string]domain.Model) error {
	return c.setBlob("models", models)
}

func (c *Collection) setConf(conf domain.Conf) error {
	return c.setBlob("conf", conf)
}

func (c *Collection) getBlob(column string, v any) error {
	raw, ok, err := c.eng.QueryString(fmt.Sprintf("SELECT %s FROM col WHERE id = 1", column))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoCollection
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode col.%s: %w", column, err)
	}
	return nil
}

func (c *Collection) setBlob(column string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode col.%s: %w", column, err)
	}
	return c.eng.Exec(fmt.Sprintf("UPDATE col SET %s = ? WHERE id = 1", column), string(raw))
}

// extractDefault returns the map without its designated default entry, plus
// the extracted value. Pure: m is not mutated.
func extractDefault[T any](m map[string]T) (map[string]T, T, bool) {
	v, ok := m[schema.DefaultKey]
	if !ok {
		var zero T
		return m, zero, false
	}
	remaining := make(map[string]T, len(m)-1)
	for k, item := range m {
		if k == schema.DefaultKey {
			continue
		}
		remaining[k] = item
	}
	return remaining, v, true
}
