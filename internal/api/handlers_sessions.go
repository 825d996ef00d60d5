package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/papernav/internal/intent"
	"github.com/dgallion1/papernav/internal/paper"
	"github.com/dgallion1/papernav/internal/session"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaperID string `json:"paper_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.PaperID == "" {
		jsonError(w, "paper_id is required", http.StatusBadRequest)
		return
	}

	sess, err := s.manager.CreateSession(req.PaperID)
	if err != nil {
		if errors.Is(err, session.ErrPaperNotFound) {
			jsonError(w, "paper not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionOr404(w, r)
	if sess == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.manager.DeleteSession(sessionID); err != nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": sessionID})
}

// handleIntent dispatches one typed intent envelope against a session.
func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionOr404(w, r)
	if sess == nil {
		return
	}

	var env intentEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	in, err := env.intent()
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := sess.Dispatch(in)
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// handleCommand parses a free-form utterance, dispatches the resulting
// intent, and echoes what was understood alongside the outcome.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionOr404(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	in, err := intent.Parse(req.Text)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := sess.Dispatch(in)
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"intent": envelopeFor(in),
		"result": res,
	})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	err := s.manager.Archive(r.Context(), sessionID)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrSessionNotFound):
		jsonError(w, "session not found", http.StatusNotFound)
		return
	case errors.Is(err, session.ErrArchiveDisabled):
		jsonError(w, "review store is not configured", http.StatusServiceUnavailable)
		return
	default:
		jsonError(w, "archive failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"archived": sessionID})
}

// sessionOr404 resolves the sessionID route param, writing the error
// response itself when the session is gone.
func (s *Server) sessionOr404(w http.ResponseWriter, r *http.Request) *session.Session {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.manager.GetSession(id)
	if err != nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return nil
	}
	return sess
}

// writeDispatchError maps engine failures onto HTTP statuses: exhausted
// references are 404, everything else is a caller mistake.
func writeDispatchError(w http.ResponseWriter, err error) {
	if paper.IsNotFound(err) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	jsonError(w, err.Error(), http.StatusBadRequest)
}

// intentEnvelope is the wire form of a typed intent. Exactly one of the
// bodies must be set, matching Type.
type intentEnvelope struct {
	Type  string       `json:"type"`
	Read  *paper.Read  `json:"read,omitempty"`
	Write *paper.Write `json:"write,omitempty"`
	Meta  *paper.Meta  `json:"meta,omitempty"`
}

func (e intentEnvelope) intent() (paper.Intent, error) {
	switch e.Type {
	case "read":
		if e.Read == nil {
			return nil, fmt.Errorf("read intent needs a read body")
		}
		if err := validateRead(*e.Read); err != nil {
			return nil, err
		}
		return *e.Read, nil
	case "write":
		if e.Write == nil {
			return nil, fmt.Errorf("write intent needs a write body")
		}
		switch e.Write.Op {
		case paper.OpMark, paper.OpSkip, paper.OpNote:
		default:
			return nil, fmt.Errorf("unknown write op %q", e.Write.Op)
		}
		if len(e.Write.Reads) == 0 {
			return nil, paper.ErrEmptyBatch
		}
		for _, rd := range e.Write.Reads {
			if err := validateRead(rd); err != nil {
				return nil, err
			}
		}
		return *e.Write, nil
	case "meta":
		if e.Meta == nil {
			return nil, fmt.Errorf("meta intent needs a meta body")
		}
		switch e.Meta.Query {
		case paper.QueryMarked, paper.QuerySkipped:
		default:
			return nil, fmt.Errorf("unknown meta query %q", e.Meta.Query)
		}
		return *e.Meta, nil
	default:
		return nil, fmt.Errorf("unknown intent type %q", e.Type)
	}
}

func validateRead(rd paper.Read) error {
	switch rd.Kind {
	case paper.KindQuestion, paper.KindSection:
	default:
		return fmt.Errorf("unknown node kind %q", rd.Kind)
	}
	switch rd.Ref.Anchor {
	case paper.AnchorStart, paper.AnchorCurrent, paper.AnchorEnd:
	default:
		return fmt.Errorf("unknown anchor %q", rd.Ref.Anchor)
	}
	return nil
}

// envelopeFor rebuilds the wire form of an intent for echoing back.
func envelopeFor(in paper.Intent) intentEnvelope {
	switch in := in.(type) {
	case paper.Read:
		return intentEnvelope{Type: "read", Read: &in}
	case paper.Write:
		return intentEnvelope{Type: "write", Write: &in}
	case paper.Meta:
		return intentEnvelope{Type: "meta", Meta: &in}
	default:
		return intentEnvelope{}
	}
}
