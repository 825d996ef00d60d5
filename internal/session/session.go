package session

import (
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/papernav/internal/paper"
)

// Session is one reviewer's live pass over a paper. Each session owns
// its engine instance; the node sequence behind it is shared with other
// sessions of the same paper and never mutated.
type Session struct {
	mu sync.Mutex

	id         string
	paperID    string
	paperTitle string
	paper      *paper.Paper
	stats      *IntentStats

	createdAt  time.Time
	lastSeen   time.Time
	dispatches int64
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// PaperID returns the identifier of the paper under review.
func (s *Session) PaperID() string { return s.paperID }

// Dispatch resolves one intent against the session's paper. A session
// serializes its own intents; distinct sessions never contend.
func (s *Session) Dispatch(in paper.Intent) (paper.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res, err := s.paper.Resolve(in)
	if s.stats != nil {
		s.stats.Record(in, time.Since(start), err)
	}
	s.lastSeen = time.Now()
	s.dispatches++
	return res, err
}

// LastSeen reports when the session last dispatched an intent.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Entry is one annotated node in a snapshot, ordered by index.
type Entry struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Text  string `json:"text,omitempty"`
}

// Snapshot is a read-only, JSON-safe copy of session review state.
type Snapshot struct {
	ID             string       `json:"session_id"`
	PaperID        string       `json:"paper_id"`
	PaperTitle     string       `json:"paper_title"`
	Cursor         int          `json:"cursor"`
	Nodes          int          `json:"nodes"`
	TotalQuestions int          `json:"total_questions"`
	Marked         []Entry      `json:"marked"`
	Skipped        []Entry      `json:"skipped"`
	Notes          []paper.Note `json:"notes"`
	CreatedAt      time.Time    `json:"created_at"`
	LastSeen       time.Time    `json:"last_seen"`
	Dispatches     int64        `json:"dispatches"`
}

// Snapshot returns the session's review state as a value.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := s.paper.Notes()
	if notes == nil {
		notes = []paper.Note{}
	}
	return Snapshot{
		ID:             s.id,
		PaperID:        s.paperID,
		PaperTitle:     s.paperTitle,
		Cursor:         s.paper.PrevIndex(),
		Nodes:          s.paper.Len(),
		TotalQuestions: s.paper.TotalQuestions(),
		Marked:         entries(s.paper.Marked()),
		Skipped:        entries(s.paper.Skipped()),
		Notes:          notes,
		CreatedAt:      s.createdAt,
		LastSeen:       s.lastSeen,
		Dispatches:     s.dispatches,
	}
}

// entries flattens an annotation map into index order.
func entries(m map[int]paper.Data) []Entry {
	out := make([]Entry, 0, len(m))
	for idx, d := range m {
		out = append(out, Entry{Index: idx, Label: d.Label, Text: d.Text})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
