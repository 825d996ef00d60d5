// Package session owns the in-memory registries for uploaded papers
// and live review sessions, plus the idle-session sweeper.
package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/papernav/internal/config"
	"github.com/dgallion1/papernav/internal/paper"
	"github.com/dgallion1/papernav/internal/reviewstore"
)

var (
	ErrPaperNotFound   = errors.New("paper not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrArchiveDisabled = errors.New("review store is not configured")
)

// storedPaper is one uploaded outline plus its metadata. The outline is
// immutable; sessions built from it share the node slice.
type storedPaper struct {
	id         string
	filename   string
	outline    *paper.Outline
	uploadedAt time.Time
}

// PaperInfo is the JSON-safe description of a stored paper.
type PaperInfo struct {
	ID             string    `json:"paper_id"`
	Title          string    `json:"title"`
	Filename       string    `json:"filename"`
	Nodes          int       `json:"nodes"`
	TotalQuestions int       `json:"total_questions"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

func (sp *storedPaper) info() PaperInfo {
	return PaperInfo{
		ID:             sp.id,
		Title:          sp.outline.Title,
		Filename:       sp.filename,
		Nodes:          len(sp.outline.Nodes),
		TotalQuestions: sp.outline.TotalQuestions,
		UploadedAt:     sp.uploadedAt,
	}
}

// Manager owns the paper and session registries.
type Manager struct {
	mu       sync.RWMutex
	papers   map[string]*storedPaper
	sessions map[string]*Session

	store *reviewstore.Client // nil disables archiving
	stats *IntentStats
	log   *slog.Logger
	ttl   time.Duration
	sweep time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(cfg config.Config, store *reviewstore.Client, log *slog.Logger) *Manager {
	return &Manager{
		papers:   make(map[string]*storedPaper),
		sessions: make(map[string]*Session),
		store:    store,
		stats:    NewIntentStats(time.Hour),
		log:      log,
		ttl:      cfg.SessionTTL,
		sweep:    cfg.CleanupInterval,
	}
}

// AddPaper registers a parsed outline under its content hash. The
// second return reports whether the same bytes were already stored.
func (m *Manager) AddPaper(filename string, data []byte, outline *paper.Outline) (PaperInfo, bool) {
	id := ContentHashHex(data)[:16]

	m.mu.Lock()
	defer m.mu.Unlock()

	if sp, ok := m.papers[id]; ok {
		return sp.info(), true
	}
	sp := &storedPaper{
		id:         id,
		filename:   filename,
		outline:    outline,
		uploadedAt: time.Now(),
	}
	m.papers[id] = sp
	m.log.Info("paper stored", "paper_id", id, "title", outline.Title, "nodes", len(outline.Nodes))
	return sp.info(), false
}

// GetPaper returns the metadata of a stored paper.
func (m *Manager) GetPaper(id string) (PaperInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sp, ok := m.papers[id]
	if !ok {
		return PaperInfo{}, ErrPaperNotFound
	}
	return sp.info(), nil
}

// ListPapers returns all stored papers, oldest first.
func (m *Manager) ListPapers() []PaperInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]PaperInfo, 0, len(m.papers))
	for _, sp := range m.papers {
		out = append(out, sp.info())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out
}

// DeletePaper removes a paper from the registry. Sessions already
// reviewing it keep their copy of the node sequence and stay live.
func (m *Manager) DeletePaper(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.papers[id]; !ok {
		return ErrPaperNotFound
	}
	delete(m.papers, id)
	return nil
}

// CreateSession builds a fresh engine over a stored paper.
func (m *Manager) CreateSession(paperID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sp, ok := m.papers[paperID]
	if !ok {
		return nil, ErrPaperNotFound
	}
	p, err := sp.outline.Paper()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		id:         uuid.NewString(),
		paperID:    paperID,
		paperTitle: sp.outline.Title,
		paper:      p,
		stats:      m.stats,
		createdAt:  now,
		lastSeen:   now,
	}
	m.sessions[s.id] = s
	m.log.Info("session created", "session_id", s.id, "paper_id", paperID)
	return s, nil
}

// GetSession returns a live session by ID.
func (m *Manager) GetSession(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// DeleteSession drops a session.
func (m *Manager) DeleteSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Start launches the idle-session sweeper.
func (m *Manager) Start(ctx context.Context) {
	sweepCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n := m.Cleanup(); n > 0 {
					m.log.Info("expired idle sessions", "count", n)
				}
			}
		}
	}()
}

// Stop cancels the sweeper and waits for it.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Cleanup drops sessions idle beyond the TTL and reports how many.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	n := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen()) > m.ttl {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Archive pushes the session's review state to the review store with
// bounded retries on transient failures.
func (m *Manager) Archive(ctx context.Context, sessionID string) error {
	if m.store == nil {
		return ErrArchiveDisabled
	}
	s, err := m.GetSession(sessionID)
	if err != nil {
		return err
	}

	snap := s.Snapshot()
	review := reviewstore.Review{
		SessionID:      snap.ID,
		PaperID:        snap.PaperID,
		PaperTitle:     snap.PaperTitle,
		TotalQuestions: snap.TotalQuestions,
		Marked:         storeEntries(snap.Marked),
		Skipped:        storeEntries(snap.Skipped),
		Notes:          snap.Notes,
		ArchivedAt:     time.Now(),
	}

	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		lastErr = m.store.PutReview(ctx, sessionID, review)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		m.log.Warn("retryable archive error", "session_id", sessionID, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("archive session %s: %w", sessionID, lastErr)
}

func storeEntries(es []Entry) []reviewstore.Entry {
	out := make([]reviewstore.Entry, len(es))
	for i, e := range es {
		out[i] = reviewstore.Entry{Index: e.Index, Label: e.Label, Text: e.Text}
	}
	return out
}

// Totals reports registry sizes.
func (m *Manager) Totals() (papers, sessions int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.papers), len(m.sessions)
}

// Stats returns the rolling dispatch statistics.
func (m *Manager) Stats() StatsSnapshot {
	return m.stats.Snapshot()
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
