// Package web exposes package synthesis over HTTP: POST a deck description,
// receive the built archive.
package web

import (
	"fmt"
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/conorfennell/apkg"
	"github.com/conorfennell/apkg/internal/storage"
)

// Server holds the dependencies for the HTTP builder service.
type Server struct {
	router *http.ServeMux
	log    *slog.Logger
}

// NewServer creates and configures a new server.
func NewServer(log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		router: http.NewServeMux(),
		log:    log,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("/deck", s.handleBuildDeck())
	s.router.HandleFunc("/healthz", s.handleHealth())
}

type cardRequest struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Tags  []string `json:"tags,omitempty"`
}

type deckRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Cloze       bool          `json:"cloze,omitempty"`
	Cards       []cardRequest `json:"cards"`
}

// handleBuildDeck synthesizes a package from the posted deck description and
// streams it back as an attachment.
func (s *Server) handleBuildDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req deckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "Deck name cannot be empty", http.StatusBadRequest)
			return
		}

		data, err := s.buildDeck(r, req)
		if err != nil {
			s.log.Error("failed to build deck", "deck", req.Name, "error", err)
			http.Error(w, "Failed to build deck", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/apkg")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", req.Name+".apkg"))
		w.Write(data)
	}
}

func (s *Server) buildDeck(r *http.Request, req deckRequest) ([]byte, error) {
	eng, err := storage.OpenTemp()
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	opts := []apkg.Option{apkg.WithDescription(req.Description)}
	if req.Cloze {
		opts = append(opts, apkg.WithCloze())
	}
	session, err := apkg.New(req.Name, eng, opts...)
	if err != nil {
		return nil, err
	}

	for _, c := range req.Cards {
		var cardOpts []apkg.CardOption
		if len(c.Tags) > 0 {
			cardOpts = append(cardOpts, apkg.WithTags(c.Tags...))
		}
		if err := session.AddCard(c.Front, c.Back, cardOpts...); err != nil {
			return nil, err
		}
	}

	return session.Save(r.Context())
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}
