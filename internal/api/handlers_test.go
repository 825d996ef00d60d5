package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/papernav/internal/config"
	"github.com/dgallion1/papernav/internal/session"
)

const testKey = "test-key"

const examText = `Section A: Algebra
1. What is 1+1?
A) 1
B) 2
2. What is 2+2?
Section B: Geometry
3. Name a right angle.
`

func testServer() *Server {
	cfg := config.Config{
		PapernavAPIKey:  testKey,
		SessionTTL:      time.Hour,
		CleanupInterval: time.Minute,
		MaxUploadBytes:  1 << 20,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(session.NewManager(cfg, nil, log), log, cfg)
}

func doRequest(s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func multipartFile(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func uploadPaper(t *testing.T, s *Server, filename, content string) string {
	t.Helper()
	body, ct := multipartFile(t, filename, content)
	w := doRequest(s, http.MethodPost, "/v1/papers", body, ct)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		PaperID string `json:"paper_id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if resp.PaperID == "" {
		t.Fatal("expected a paper id")
	}
	return resp.PaperID
}

func createSession(t *testing.T, s *Server, paperID string) string {
	t.Helper()
	body := strings.NewReader(`{"paper_id":"` + paperID + `"}`)
	w := doRequest(s, http.MethodPost, "/v1/sessions", body, "application/json")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var snap struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if snap.SessionID == "" {
		t.Fatal("expected a session id")
	}
	return snap.SessionID
}

func TestHealthIsPublic(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/v1/papers", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/papers", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	w = httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for bad key, got %d", w.Code)
	}
}

func TestUploadPaper(t *testing.T) {
	s := testServer()

	body, ct := multipartFile(t, "final.txt", examText)
	w := doRequest(s, http.MethodPost, "/v1/papers", body, ct)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		PaperID        string `json:"paper_id"`
		Title          string `json:"title"`
		Nodes          int    `json:"nodes"`
		TotalQuestions int    `json:"total_questions"`
		Duplicate      bool   `json:"duplicate"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Nodes != 5 || resp.TotalQuestions != 3 {
		t.Fatalf("expected nodes=5 questions=3, got nodes=%d questions=%d", resp.Nodes, resp.TotalQuestions)
	}
	if resp.Duplicate {
		t.Fatal("expected first upload not to be a duplicate")
	}

	// Same bytes again: dedup, 200.
	body, ct = multipartFile(t, "final.txt", examText)
	w = doRequest(s, http.MethodPost, "/v1/papers", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for duplicate, got %d", w.Code)
	}
	var dup struct {
		PaperID   string `json:"paper_id"`
		Duplicate bool   `json:"duplicate"`
	}
	if err := json.NewDecoder(w.Body).Decode(&dup); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !dup.Duplicate || dup.PaperID != resp.PaperID {
		t.Fatalf("expected duplicate of %s, got %+v", resp.PaperID, dup)
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	s := testServer()
	body, ct := multipartFile(t, "exam.exe", "MZ")
	w := doRequest(s, http.MethodPost, "/v1/papers", body, ct)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected status 415, got %d", w.Code)
	}
}

func TestUploadRejectsOversizeFile(t *testing.T) {
	cfg := config.Config{
		PapernavAPIKey:  testKey,
		SessionTTL:      time.Hour,
		CleanupInterval: time.Minute,
		MaxUploadBytes:  64,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(session.NewManager(cfg, nil, log), log, cfg)

	body, ct := multipartFile(t, "final.txt", strings.Repeat("1. Question?\n", 20))
	w := doRequest(s, http.MethodPost, "/v1/papers", body, ct)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", w.Code)
	}
}

func TestUploadRejectsUnparseableFile(t *testing.T) {
	s := testServer()
	body, ct := multipartFile(t, "prose.txt", "just some prose with no questions\n")
	w := doRequest(s, http.MethodPost, "/v1/papers", body, ct)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "no questions or sections found") {
		t.Fatalf("expected parse error in body, got %s", w.Body.String())
	}
}

func TestSessionIntentFlow(t *testing.T) {
	s := testServer()
	paperID := uploadPaper(t, s, "final.txt", examText)
	sessionID := createSession(t, s, paperID)

	// Read the first question: index 1, right after the section heading.
	read := `{"type":"read","read":{"kind":"question","ref":{"anchor":"start","offset":0}}}`
	w := doRequest(s, http.MethodPost, "/v1/sessions/"+sessionID+"/intents", strings.NewReader(read), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Index int `json:"index"`
		Data  *struct {
			Label string `json:"label"`
			Text  string `json:"text"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Index != 1 || res.Data == nil || res.Data.Label != "Question 1" {
		t.Fatalf("expected Question 1 at index 1, got %+v", res)
	}

	// Mark the next question relative to the cursor.
	mark := `{"type":"write","write":{"op":"mark","reads":[{"kind":"question","ref":{"anchor":"current","offset":0}}]}}`
	w = doRequest(s, http.MethodPost, "/v1/sessions/"+sessionID+"/intents", strings.NewReader(mark), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var markRes struct {
		Index   int    `json:"index"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(w.Body).Decode(&markRes); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if markRes.Index != 2 || markRes.Message != "Marked Question 2 for review." {
		t.Fatalf("unexpected mark result: %+v", markRes)
	}

	// Free-form command for the marked count.
	cmd := `{"text":"how many are marked for review"}`
	w = doRequest(s, http.MethodPost, "/v1/sessions/"+sessionID+"/commands", strings.NewReader(cmd), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var cmdRes struct {
		Intent struct {
			Type string `json:"type"`
		} `json:"intent"`
		Result struct {
			Index   int    `json:"index"`
			Message string `json:"message"`
		} `json:"result"`
	}
	if err := json.NewDecoder(w.Body).Decode(&cmdRes); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if cmdRes.Intent.Type != "meta" {
		t.Fatalf("expected a meta intent echo, got %q", cmdRes.Intent.Type)
	}
	if cmdRes.Result.Index != -1 || cmdRes.Result.Message != "1 of 3 questions marked for review." {
		t.Fatalf("unexpected meta result: %+v", cmdRes.Result)
	}

	// Snapshot: cursor stayed on the standalone read, the batch never moved it.
	w = doRequest(s, http.MethodGet, "/v1/sessions/"+sessionID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var snap struct {
		Cursor int `json:"cursor"`
		Marked []struct {
			Index int    `json:"index"`
			Label string `json:"label"`
		} `json:"marked"`
	}
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", snap.Cursor)
	}
	if len(snap.Marked) != 1 || snap.Marked[0].Index != 2 || snap.Marked[0].Label != "Question 2" {
		t.Fatalf("expected Question 2 marked, got %+v", snap.Marked)
	}

	// Drop the session.
	w = doRequest(s, http.MethodDelete, "/v1/sessions/"+sessionID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	w = doRequest(s, http.MethodGet, "/v1/sessions/"+sessionID, nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 after delete, got %d", w.Code)
	}
}

func TestIntentEnvelopeRejections(t *testing.T) {
	s := testServer()
	paperID := uploadPaper(t, s, "final.txt", examText)
	sessionID := createSession(t, s, paperID)

	cases := []struct {
		name string
		body string
	}{
		{"unknown type", `{"type":"poke"}`},
		{"missing read body", `{"type":"read"}`},
		{"bad anchor", `{"type":"read","read":{"kind":"question","ref":{"anchor":"middle","offset":0}}}`},
		{"bad kind", `{"type":"read","read":{"kind":"chapter","ref":{"anchor":"start","offset":0}}}`},
		{"empty write batch", `{"type":"write","write":{"op":"mark","reads":[]}}`},
		{"bad write op", `{"type":"write","write":{"op":"erase","reads":[{"kind":"question","ref":{"anchor":"start","offset":0}}]}}`},
		{"bad meta query", `{"type":"meta","meta":{"query":"noted"}}`},
	}
	for _, tc := range cases {
		w := doRequest(s, http.MethodPost, "/v1/sessions/"+sessionID+"/intents", strings.NewReader(tc.body), "application/json")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d: %s", tc.name, w.Code, w.Body.String())
		}
	}
}

func TestIntentResolutionNotFound(t *testing.T) {
	s := testServer()
	paperID := uploadPaper(t, s, "final.txt", examText)
	sessionID := createSession(t, s, paperID)

	read := `{"type":"read","read":{"kind":"question","ref":{"anchor":"end","offset":50}}}`
	w := doRequest(s, http.MethodPost, "/v1/sessions/"+sessionID+"/intents", strings.NewReader(read), "application/json")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "could not resolve a previous node") {
		t.Fatalf("expected resolution error in body, got %s", w.Body.String())
	}
}

func TestCommandRejectsUnparseableText(t *testing.T) {
	s := testServer()
	paperID := uploadPaper(t, s, "final.txt", examText)
	sessionID := createSession(t, s, paperID)

	w := doRequest(s, http.MethodPost, "/v1/sessions/"+sessionID+"/commands", strings.NewReader(`{"text":"mark this"}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "cannot parse") {
		t.Fatalf("expected parse rejection in body, got %s", w.Body.String())
	}
}

func TestCreateSessionUnknownPaper(t *testing.T) {
	s := testServer()
	w := doRequest(s, http.MethodPost, "/v1/sessions", strings.NewReader(`{"paper_id":"nope"}`), "application/json")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestArchiveWithoutStore(t *testing.T) {
	s := testServer()
	paperID := uploadPaper(t, s, "final.txt", examText)
	sessionID := createSession(t, s, paperID)

	w := doRequest(s, http.MethodPost, "/v1/sessions/"+sessionID+"/archive", nil, "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := testServer()
	paperID := uploadPaper(t, s, "final.txt", examText)
	sessionID := createSession(t, s, paperID)

	read := `{"type":"read","read":{"kind":"question","ref":{"anchor":"start","offset":0}}}`
	w := doRequest(s, http.MethodPost, "/v1/sessions/"+sessionID+"/intents", strings.NewReader(read), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = doRequest(s, http.MethodGet, "/v1/stats", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var stats struct {
		Papers   int `json:"papers"`
		Sessions int `json:"sessions"`
		Intents  struct {
			Reads int64 `json:"reads"`
		} `json:"intents"`
	}
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Papers != 1 || stats.Sessions != 1 {
		t.Fatalf("expected 1 paper and 1 session, got %d and %d", stats.Papers, stats.Sessions)
	}
	if stats.Intents.Reads != 1 {
		t.Fatalf("expected 1 read recorded, got %d", stats.Intents.Reads)
	}
}
