// Package history maintains the client-side view of past analyses. The
// server owns the list; this store keeps one serialized in-memory copy and
// applies deletes optimistically, replacing the copy with server truth when
// a delete fails rather than re-inserting possibly stale entries.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"appunti/internal/logging"
	"appunti/internal/results"
	"appunti/internal/services/notes"
)

// Lister is the slice of the backend client the store needs.
type Lister interface {
	ListAnalyses(ctx context.Context) ([]notes.Analysis, error)
	DeleteAnalysis(ctx context.Context, id string) error
}

// Entry is one past analysis prepared for display. Raw holds the
// unnormalized payload; it is normalized lazily on expand.
type Entry struct {
	ID          string
	Name        string
	Type        string
	ContentType results.ContentType
	Date        time.Time
	Status      string
	Raw         json.RawMessage
}

// Confirmer approves a destructive delete before the store touches anything.
type Confirmer func(entry Entry) bool

// Store serializes access to the cached history list.
type Store struct {
	client   Lister
	registry *results.Registry
	logger   *slog.Logger

	mu      sync.Mutex
	entries []Entry
	loaded  bool
}

// NewStore creates a history store over the backend client.
func NewStore(client Lister, logger *slog.Logger) *Store {
	return &Store{
		client:   client,
		registry: results.Default,
		logger:   logging.NewComponentLogger(logger, "history"),
	}
}

// List returns the cached entries, fetching them eagerly on first use.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()

	if !loaded {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Refresh replaces the cached list with server truth.
func (s *Store) Refresh(ctx context.Context) error {
	analyses, err := s.client.ListAnalyses(ctx)
	if err != nil {
		return err
	}

	entries := make([]Entry, 0, len(analyses))
	for _, analysis := range analyses {
		entries = append(entries, s.toEntry(analysis))
	}

	s.mu.Lock()
	s.entries = entries
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Delete removes one analysis after confirmation. The entry disappears from
// the local list immediately; if the remote delete fails the list is
// restored by re-fetching from the server. Deleting an id the server no
// longer knows is treated as success.
func (s *Store) Delete(ctx context.Context, id string, confirm Confirmer) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, errors.New("analysis id must not be empty")
	}

	s.mu.Lock()
	index := -1
	for i, entry := range s.entries {
		if entry.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return false, errors.New("analysis not in history: " + id)
	}
	entry := s.entries[index]
	s.mu.Unlock()

	if confirm != nil && !confirm(entry) {
		return false, nil
	}

	// Optimistic removal before the remote call.
	s.mu.Lock()
	filtered := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.ID != id {
			filtered = append(filtered, e)
		}
	}
	s.entries = filtered
	s.mu.Unlock()

	err := s.client.DeleteAnalysis(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, notes.ErrAnalysisNotFound):
		// Already gone server-side; the optimistic removal stands.
		return true, nil
	default:
		s.logger.Warn("delete failed, restoring from server",
			logging.String("analysis_id", id),
			logging.Error(err),
		)
		if refreshErr := s.Refresh(ctx); refreshErr != nil {
			s.logger.Error("rollback refresh failed", logging.Error(refreshErr))
		}
		return false, err
	}
}

// Expand normalizes an entry's raw payload for detailed display.
func (s *Store) Expand(entry Entry) (*results.Variant, error) {
	return s.registry.Normalize(entry.Raw)
}

func (s *Store) toEntry(analysis notes.Analysis) Entry {
	status := "pending"
	if hasContent(analysis.Content) {
		status = "completed"
	}
	return Entry{
		ID:          analysis.TranscriptID,
		Name:        analysis.Title,
		Type:        analysis.FileType,
		ContentType: s.contentTypeOf(analysis.Content),
		Date:        analysis.CreatedAt,
		Status:      status,
		Raw:         analysis.Content,
	}
}

// contentTypeOf peeks at the discriminator without a full normalization.
func (s *Store) contentTypeOf(raw json.RawMessage) results.ContentType {
	var probe struct {
		TipoContenuto string `json:"tipo_contenuto"`
		ContentType   string `json:"content_type"`
	}
	_ = json.Unmarshal(raw, &probe)
	value := probe.TipoContenuto
	if value == "" {
		value = probe.ContentType
	}
	return s.registry.Resolve(value)
}

func hasContent(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null" && trimmed != "{}"
}
