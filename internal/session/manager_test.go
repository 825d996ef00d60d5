package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/papernav/internal/config"
	"github.com/dgallion1/papernav/internal/paper"
	"github.com/dgallion1/papernav/internal/reviewstore"
)

func testOutline() *paper.Outline {
	return &paper.Outline{
		Title: "Algebra Final",
		Nodes: []paper.Node{
			{Kind: paper.KindSection, Data: paper.Data{Label: "Section A", Text: "Algebra"}},
			{Kind: paper.KindQuestion, Data: paper.Data{Label: "Question 1", Text: "What is 1+1?"}},
			{Kind: paper.KindQuestion, Data: paper.Data{Label: "Question 2", Text: "What is 2+2?"}},
			{Kind: paper.KindQuestion, Data: paper.Data{Label: "Question 3", Text: "What is 3+3?"}},
		},
		TotalQuestions: 3,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testManager(store *reviewstore.Client) *Manager {
	cfg := config.Config{SessionTTL: time.Hour, CleanupInterval: time.Minute}
	return NewManager(cfg, store, discardLogger())
}

func TestManagerAddPaperDedup(t *testing.T) {
	m := testManager(nil)

	first, dup := m.AddPaper("final.txt", []byte("same bytes"), testOutline())
	if dup {
		t.Fatal("expected first upload to be new")
	}
	if len(first.ID) != 16 {
		t.Fatalf("expected 16-char id, got %q", first.ID)
	}
	if first.Nodes != 4 || first.TotalQuestions != 3 {
		t.Fatalf("expected nodes=4 questions=3, got nodes=%d questions=%d", first.Nodes, first.TotalQuestions)
	}

	second, dup := m.AddPaper("renamed.txt", []byte("same bytes"), testOutline())
	if !dup {
		t.Fatal("expected identical bytes to dedup")
	}
	if second.ID != first.ID {
		t.Fatalf("expected id %s, got %s", first.ID, second.ID)
	}
	if second.Filename != "final.txt" {
		t.Fatalf("expected original filename kept, got %s", second.Filename)
	}

	papers, sessions := m.Totals()
	if papers != 1 || sessions != 0 {
		t.Fatalf("expected 1 paper and 0 sessions, got %d and %d", papers, sessions)
	}
}

func TestManagerListPapers(t *testing.T) {
	m := testManager(nil)
	a, _ := m.AddPaper("a.txt", []byte("paper a"), testOutline())
	b, _ := m.AddPaper("b.txt", []byte("paper b"), testOutline())

	list := m.ListPapers()
	if len(list) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(list))
	}
	ids := map[string]bool{list[0].ID: true, list[1].ID: true}
	if !ids[a.ID] || !ids[b.ID] {
		t.Fatalf("expected both papers listed, got %v", list)
	}
}

func TestManagerCreateSessionUnknownPaper(t *testing.T) {
	m := testManager(nil)
	if _, err := m.CreateSession("nope"); !errors.Is(err, ErrPaperNotFound) {
		t.Fatalf("expected ErrPaperNotFound, got %v", err)
	}
}

func TestManagerSessionDispatchUpdatesSnapshot(t *testing.T) {
	m := testManager(nil)
	info, _ := m.AddPaper("final.txt", []byte("algebra"), testOutline())

	s, err := m.CreateSession(info.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	res, err := s.Dispatch(paper.Read{Kind: paper.KindQuestion, Ref: paper.Start(1)})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if res.Index != 2 {
		t.Fatalf("expected index 2, got %d", res.Index)
	}
	if res.Data == nil || res.Data.Label != "Question 2" {
		t.Fatalf("expected Question 2, got %+v", res.Data)
	}

	snap := s.Snapshot()
	if snap.Cursor != 2 {
		t.Fatalf("expected cursor 2, got %d", snap.Cursor)
	}
	if snap.Dispatches != 1 {
		t.Fatalf("expected 1 dispatch, got %d", snap.Dispatches)
	}
	if snap.Nodes != 4 || snap.TotalQuestions != 3 {
		t.Fatalf("expected nodes=4 questions=3, got nodes=%d questions=%d", snap.Nodes, snap.TotalQuestions)
	}
	if snap.PaperTitle != "Algebra Final" {
		t.Fatalf("expected paper title, got %q", snap.PaperTitle)
	}

	got, err := m.GetSession(s.ID())
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got != s {
		t.Fatal("expected the same session instance")
	}
}

func TestManagerCleanupExpiresIdleSessions(t *testing.T) {
	cfg := config.Config{SessionTTL: 10 * time.Millisecond, CleanupInterval: time.Minute}
	m := NewManager(cfg, nil, discardLogger())

	info, _ := m.AddPaper("final.txt", []byte("algebra"), testOutline())
	s, err := m.CreateSession(info.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	time.Sleep(25 * time.Millisecond)
	if n := m.Cleanup(); n != 1 {
		t.Fatalf("expected 1 expired session, got %d", n)
	}
	if _, err := m.GetSession(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerSweeperExpiresSessions(t *testing.T) {
	cfg := config.Config{SessionTTL: 5 * time.Millisecond, CleanupInterval: 10 * time.Millisecond}
	m := NewManager(cfg, nil, discardLogger())

	info, _ := m.AddPaper("final.txt", []byte("algebra"), testOutline())
	s, err := m.CreateSession(info.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	m.Start(context.Background())
	defer m.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := m.GetSession(s.ID()); errors.Is(err, ErrSessionNotFound) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session was not expired by the sweeper")
}

func TestManagerDeletePaperKeepsSessions(t *testing.T) {
	m := testManager(nil)
	info, _ := m.AddPaper("final.txt", []byte("algebra"), testOutline())
	s, err := m.CreateSession(info.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := m.DeletePaper(info.ID); err != nil {
		t.Fatalf("delete paper: %v", err)
	}
	if _, err := m.GetPaper(info.ID); !errors.Is(err, ErrPaperNotFound) {
		t.Fatalf("expected ErrPaperNotFound, got %v", err)
	}
	if _, err := s.Dispatch(paper.Read{Kind: paper.KindQuestion, Ref: paper.Start(0)}); err != nil {
		t.Fatalf("expected live session to keep dispatching, got %v", err)
	}
	if _, err := m.CreateSession(info.ID); !errors.Is(err, ErrPaperNotFound) {
		t.Fatalf("expected new sessions to be refused, got %v", err)
	}
	if err := m.DeletePaper(info.ID); !errors.Is(err, ErrPaperNotFound) {
		t.Fatalf("expected second delete to fail, got %v", err)
	}
}

func TestManagerArchiveDisabled(t *testing.T) {
	m := testManager(nil)
	info, _ := m.AddPaper("final.txt", []byte("algebra"), testOutline())
	s, _ := m.CreateSession(info.ID)

	if err := m.Archive(context.Background(), s.ID()); !errors.Is(err, ErrArchiveDisabled) {
		t.Fatalf("expected ErrArchiveDisabled, got %v", err)
	}
}

func TestManagerArchivePushesReview(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotAuth   string
		gotBody   reviewstore.Review
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode review: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := reviewstore.NewClient(srv.URL, "secret")
	defer store.Close()
	m := testManager(store)

	info, _ := m.AddPaper("final.txt", []byte("algebra"), testOutline())
	s, err := m.CreateSession(info.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	mark := paper.Write{Op: paper.OpMark, Reads: []paper.Read{{Kind: paper.KindQuestion, Ref: paper.Start(0)}}}
	if _, err := s.Dispatch(mark); err != nil {
		t.Fatalf("dispatch mark: %v", err)
	}

	if err := m.Archive(context.Background(), s.ID()); err != nil {
		t.Fatalf("archive: %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Fatalf("expected PUT, got %s", gotMethod)
	}
	if gotPath != "/reviews/"+s.ID() {
		t.Fatalf("expected path /reviews/%s, got %s", s.ID(), gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotBody.SessionID != s.ID() {
		t.Fatalf("expected session id %s, got %s", s.ID(), gotBody.SessionID)
	}
	if gotBody.PaperTitle != "Algebra Final" {
		t.Fatalf("expected paper title, got %q", gotBody.PaperTitle)
	}
	if len(gotBody.Marked) != 1 || gotBody.Marked[0].Index != 1 || gotBody.Marked[0].Label != "Question 1" {
		t.Fatalf("expected Question 1 marked, got %+v", gotBody.Marked)
	}
}

func TestManagerArchiveUnknownSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := testManager(reviewstore.NewClient(srv.URL, "secret"))
	if err := m.Archive(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerArchiveNonRetryableStatus(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	m := testManager(reviewstore.NewClient(srv.URL, "secret"))
	info, _ := m.AddPaper("final.txt", []byte("algebra"), testOutline())
	s, _ := m.CreateSession(info.ID)

	err := m.Archive(context.Background(), s.ID())
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("expected status 400 error, got %v", err)
	}
	if requests != 1 {
		t.Fatalf("expected a single attempt for a non-retryable status, got %d", requests)
	}
}

func TestManagerArchiveStopsOnContextCancel(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := testManager(reviewstore.NewClient(srv.URL, "secret"))
	info, _ := m.AddPaper("final.txt", []byte("algebra"), testOutline())
	s, _ := m.CreateSession(info.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := m.Archive(ctx, s.ID())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
	if requests != 1 {
		t.Fatalf("expected a single attempt before the deadline, got %d", requests)
	}
}
