// Package apkg synthesizes portable study-deck packages: a relational
// snapshot of cards, notes and decks plus associated media, assembled into a
// single archive the consuming spaced-repetition application can import.
//
// A Session is the incremental path: create one with New, feed it cards and
// media, then Save exactly once. BuildCollection and BuildPackage cover the
// bulk path, constructing an entire package from a fully specified input in
// one pass. All capabilities (relational engine, archive writer) are passed
// in explicitly; nothing is resolved through ambient globals.
package apkg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/conorfennell/apkg/internal/archive"
	"github.com/conorfennell/apkg/internal/collection"
	"github.com/conorfennell/apkg/internal/domain"
	"github.com/conorfennell/apkg/internal/schema"
)

// DatabaseEntry is the archive entry name of the exported snapshot.
const DatabaseEntry = "collection.anki2"

// MediaManifestEntry is the archive entry name of the media index.
const MediaManifestEntry = "media"

var (
	// ErrSessionSaved is returned when a saved session is reused.
	ErrSessionSaved = errors.New("apkg: session already saved")
	// ErrMediaUnresolved is returned when a declared media entry has no
	// content at save time. The save fails atomically; callers may
	// re-supply the content and call Save again on a fresh session.
	ErrMediaUnresolved = errors.New("apkg: media content unresolved")
	// ErrNoArchiveWriter is returned when the archive capability is absent.
	ErrNoArchiveWriter = errors.New("apkg: no archive writer supplied")
)

// Engine is the embedded relational capability a session writes through.
// internal/storage provides the SQLite implementation.
type Engine interface {
	Exec(query string, args ...any) error
	QueryInt64(query string, args ...any) (int64, bool, error)
	QueryString(query string, args ...any) (string, bool, error)
	Export() ([]byte, error)
}

// ArchiveWriter is the archive capability used by the package assembler.
type ArchiveWriter interface {
	AddEntry(name string, data []byte) error
	Serialize() ([]byte, error)
}

// NewArchiveWriter returns the default deflate zip writer.
func NewArchiveWriter() ArchiveWriter {
	return archive.NewZip()
}

// MediaSource supplies media content lazily; it is resolved during Save.
type MediaSource func(ctx context.Context) ([]byte, error)

// MediaFile is one resolved media entry, in package order.
type MediaFile struct {
	Filename string
	Data     []byte
}

// CardTemplate describes one rendering template when overriding the default
// note-type.
type CardTemplate struct {
	Name     string
	Question string
	Answer   string
}

// Note is the full note form: ordered field values plus optional tags and a
// caller-supplied guid. An empty GUID is derived from the field content.
type Note struct {
	GUID    string
	Fields  []string
	Tags    []string // list variant: normalized before storage
	TagLine string   // inline variant: stored verbatim, wins when set
}

func (n Note) tags() domain.Tags {
	if n.TagLine != "" {
		return domain.TagLine(n.TagLine)
	}
	if n.Tags != nil {
		return domain.TagList(n.Tags)
	}
	return nil
}

type sessionConfig struct {
	clock       func() time.Time
	description string
	modelName   string
	css         string
	latexPre    string
	latexPost   string
	fields      []string
	templates   []CardTemplate
	cloze       bool
}

// Option configures session creation.
type Option func(*sessionConfig)

// WithClock fixes the time source. Identical inputs under an identical clock
// produce byte-identical archives.
func WithClock(now func() time.Time) Option {
	return func(c *sessionConfig) { c.clock = now }
}

// WithDescription sets the deck description.
func WithDescription(desc string) Option {
	return func(c *sessionConfig) { c.description = desc }
}

// WithModelName names the note-type; it defaults to the deck name.
func WithModelName(name string) Option {
	return func(c *sessionConfig) { c.modelName = name }
}

// WithCSS overrides the note-type's shared stylesheet.
func WithCSS(css string) Option {
	return func(c *sessionConfig) { c.css = css }
}

// WithLatex overrides the LaTeX preamble and postamble.
func WithLatex(pre, post string) Option {
	return func(c *sessionConfig) { c.latexPre, c.latexPost = pre, post }
}

// WithFields replaces the note-type's ordered field list.
func WithFields(names ...string) Option {
	return func(c *sessionConfig) { c.fields = names }
}

// WithTemplates replaces the note-type's rendering templates.
func WithTemplates(templates ...CardTemplate) Option {
	return func(c *sessionConfig) { c.templates = templates }
}

// WithCloze switches the note-type to cloze-deletion semantics: card count
// and ordinals come from {{cN::...}} markers in field values.
func WithCloze() Option {
	return func(c *sessionConfig) { c.cloze = true }
}

type mediaEntry struct {
	filename string
	data     []byte
	src      MediaSource
}

// Session is one package synthesis in progress. It owns its engine
// exclusively and must be used from a single goroutine.
type Session struct {
	col   *collection.Collection
	media []mediaEntry
	saved bool
}

// New initializes the base schema on eng and grafts one deck and one
// note-type from the caller's metadata.
func New(deckName string, eng Engine, opts ...Option) (*Session, error) {
	cfg := sessionConfig{clock: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	col, err := collection.Open(eng, cfg.clock)
	if err != nil {
		return nil, err
	}
	if _, err := col.Graft(deckName, cfg.description, buildModel(cfg)); err != nil {
		return nil, err
	}
	return &Session{col: col}, nil
}

func buildModel(cfg sessionConfig) domain.Model {
	var model domain.Model
	if cfg.cloze {
		model = schema.ClozeModel(0)
	} else {
		model = schema.DefaultModel(0)
	}
	model.Name = cfg.modelName
	if cfg.css != "" {
		model.CSS = cfg.css
	}
	if cfg.latexPre != "" {
		model.LatexPre = cfg.latexPre
	}
	if cfg.latexPost != "" {
		model.LatexPost = cfg.latexPost
	}
	if len(cfg.fields) > 0 {
		fields := make([]domain.Field, len(cfg.fields))
		for i, name := range cfg.fields {
			fields[i] = schema.NewField(name, i)
		}
		model.Fields = fields
	}
	if len(cfg.templates) > 0 {
		templates := make([]domain.Template, len(cfg.templates))
		for i, t := range cfg.templates {
			templates[i] = domain.Template{
				Name: t.Name,
				Ord:  i,
				Qfmt: t.Question,
				Afmt: t.Answer,
			}
		}
		model.Templates = templates
	}
	if len(cfg.fields) > 0 || len(cfg.templates) > 0 {
		model.Req = collection.ComputeReq(model)
	}
	return model
}

// CardOption attaches optional note content to AddCard.
type CardOption func(*Note)

// WithTags attaches the list tag variant.
func WithTags(tags ...string) CardOption {
	return func(n *Note) { n.Tags = tags }
}

// WithTagLine attaches the inline tag variant, stored verbatim.
func WithTagLine(line string) CardOption {
	return func(n *Note) { n.TagLine = line }
}

// AddCard synthesizes a two-field note and its cards under the session's
// note-type. Re-adding identical content updates the existing rows.
func (s *Session) AddCard(front, back string, opts ...CardOption) error {
	note := Note{Fields: []string{front, back}}
	for _, opt := range opts {
		opt(&note)
	}
	_, err := s.AddNote(note)
	return err
}

// AddNote synthesizes one note row and its expanded cards, returning the
// number of cards emitted. Zero cards means every template had an empty
// required field; that is a policy outcome, not an error.
func (s *Session) AddNote(note Note) (int, error) {
	if s.saved {
		return 0, ErrSessionSaved
	}
	return s.col.AddNote(0, domain.Note{
		GUID:   note.GUID,
		Tags:   note.tags(),
		Fields: note.Fields,
	})
}

// AddMedia registers media with already-resolved content.
func (s *Session) AddMedia(filename string, data []byte) {
	s.media = append(s.media, mediaEntry{filename: filename, data: data})
}

// AddMediaSource registers media whose content is resolved at save time.
func (s *Session) AddMediaSource(filename string, src MediaSource) {
	s.media = append(s.media, mediaEntry{filename: filename, src: src})
}

// Save resolves all pending media in one gather, performs the single database
// export, and serializes the archive. A failed save leaves no partial
// archive; the session cannot be saved twice.
func (s *Session) Save(ctx context.Context) ([]byte, error) {
	if s.saved {
		return nil, ErrSessionSaved
	}

	files := make([]MediaFile, len(s.media))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range s.media {
		files[i].Filename = m.filename
		if m.src == nil {
			if m.data == nil {
				return nil, fmt.Errorf("%w: %s", ErrMediaUnresolved, m.filename)
			}
			files[i].Data = m.data
			continue
		}
		g.Go(func() error {
			data, err := m.src(gctx)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrMediaUnresolved, m.filename, err)
			}
			files[i].Data = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	db, err := s.col.Export()
	if err != nil {
		return nil, err
	}
	s.saved = true

	return BuildPackage(db, files, archive.NewZip())
}

// BuildPackage assembles the final archive: the database snapshot, the media
// manifest keyed by contiguous 0-based string indices in input order, and one
// entry per media file named by its index.
func BuildPackage(db []byte, media []MediaFile, w ArchiveWriter) ([]byte, error) {
	if w == nil {
		return nil, ErrNoArchiveWriter
	}
	if err := w.AddEntry(DatabaseEntry, db); err != nil {
		return nil, err
	}

	manifest := make(map[string]string, len(media))
	for i, m := range media {
		manifest[strconv.Itoa(i)] = m.Filename
	}
	encoded, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode media manifest: %w", err)
	}
	if err := w.AddEntry(MediaManifestEntry, encoded); err != nil {
		return nil, err
	}

	for i, m := range media {
		if m.Data == nil {
			return nil, fmt.Errorf("%w: %s", ErrMediaUnresolved, m.Filename)
		}
		if err := w.AddEntry(strconv.Itoa(i), m.Data); err != nil {
			return nil, err
		}
	}
	return w.Serialize()
}
