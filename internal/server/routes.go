package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/memoir/internal/recall"
	"github.com/abhisek/memoir/internal/session"
	"github.com/abhisek/memoir/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var transition *recall.TransitionError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &transition),
		errors.Is(err, session.ErrQuotaExceeded),
		errors.Is(err, session.ErrInactiveUser),
		errors.Is(err, store.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, session.ErrEmptyAnswer),
		errors.Is(err, recall.ErrInvalidConfidence),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

var errBadRequest = errors.New("bad request")

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %v: %w", err, errBadRequest)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: %w", name, chi.URLParam(r, name), errBadRequest)
	}
	return id, nil
}

// day reads the optional date query parameter, defaulting to today.
func (s *Server) day(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return store.Day(s.now()), nil
	}
	d, err := time.Parse(store.DayLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", v, errBadRequest)
	}
	return d, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	}
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["db_error"] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type createUserRequest struct {
	Name          string `json:"name"`
	BirthDate     string `json:"birth_date"`
	DiagnosisDate string `json:"diagnosis_date"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Name == "" {
		s.writeError(w, r, fmt.Errorf("name is required: %w", errBadRequest))
		return
	}
	diagnosis, err := time.Parse(store.DayLayout, req.DiagnosisDate)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("invalid diagnosis_date %q: %w", req.DiagnosisDate, errBadRequest))
		return
	}
	u, err := s.svc.GetOrCreateUser(r.Context(), req.Name, req.BirthDate, diagnosis)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	today, err := s.day(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	info, err := s.svc.GetPhaseInfo(r.Context(), userID, today)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	today, err := s.day(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sel, err := s.svc.SelectNext(r.Context(), userID, today)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	today, err := s.day(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.GetStats(r.Context(), userID, today)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type answerRequest struct {
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
}

func (s *Server) handleInitialAnswer(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req answerRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.SubmitInitialAnswer(r.Context(), userID, req.QuestionID, req.Text, store.Day(s.now()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.KeywordsErr != "" {
		s.log.Warn("keyword extraction degraded", "user", userID, "question", req.QuestionID, "error", res.KeywordsErr)
	}
	writeJSON(w, http.StatusCreated, res)
}

// checkView is the client-visible part of an attempt. Keywords are never
// sent and the original answer only once it is revealed.
type checkView struct {
	ID             string            `json:"id"`
	QuestionID     int64             `json:"question_id"`
	QuestionText   string            `json:"question_text"`
	State          recall.State      `json:"state"`
	MatchCount     int               `json:"match_count"`
	HintURL        string            `json:"hint_url,omitempty"`
	HintError      string            `json:"hint_error,omitempty"`
	OriginalAnswer string            `json:"original_answer,omitempty"`
	Verdict        store.CheckResult `json:"verdict,omitempty"`
	Check          *store.Check      `json:"check,omitempty"`
}

func newCheckView(res *session.Result) checkView {
	a := res.Attempt
	return checkView{
		ID:             a.ID,
		QuestionID:     a.QuestionID,
		QuestionText:   a.QuestionText,
		State:          a.State,
		MatchCount:     a.MatchCount,
		HintURL:        res.HintURL,
		HintError:      res.HintErr,
		OriginalAnswer: res.OriginalAnswer,
		Verdict:        res.Verdict,
		Check:          res.Check,
	}
}

type startCheckRequest struct {
	QuestionID int64 `json:"question_id"`
}

func (s *Server) handleStartCheck(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req startCheckRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.StartCheck(r.Context(), userID, req.QuestionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.attempts.put(res.Attempt)
	writeJSON(w, http.StatusCreated, newCheckView(res))
}

// attempt looks up the attempt named in the path.
func (s *Server) attempt(r *http.Request) (recall.Attempt, error) {
	id := chi.URLParam(r, "attemptID")
	a, ok := s.attempts.get(id)
	if !ok {
		return recall.Attempt{}, fmt.Errorf("check %s: %w", id, store.ErrNotFound)
	}
	return a, nil
}

func (s *Server) handleGetCheck(w http.ResponseWriter, r *http.Request) {
	a, err := s.attempt(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res := &session.Result{Attempt: a, HintURL: a.HintURL, HintErr: a.HintError}
	if a.Revealed() {
		res.OriginalAnswer = a.OriginalAnswer
	}
	writeJSON(w, http.StatusOK, newCheckView(res))
}

// advance runs one session action on the path's attempt and stores the
// outcome. Failed actions leave the stored attempt unchanged.
func (s *Server) advance(w http.ResponseWriter, r *http.Request, act func(recall.Attempt) (*session.Result, error)) {
	a, err := s.attempt(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := act(a)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.attempts.put(res.Attempt)
	if res.HintErr != "" && res.HintErr != a.HintError {
		s.log.Warn("hint generation failed", "check", a.ID, "error", res.HintErr)
	}
	writeJSON(w, http.StatusOK, newCheckView(res))
}

type confidenceRequest struct {
	Confidence store.Confidence `json:"confidence"`
}

func (s *Server) handleConfidence(w http.ResponseWriter, r *http.Request) {
	var req confidenceRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.advance(w, r, func(a recall.Attempt) (*session.Result, error) {
		return s.svc.SubmitConfidence(r.Context(), a, req.Confidence)
	})
}

type recallRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	var req recallRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.advance(w, r, func(a recall.Attempt) (*session.Result, error) {
		return s.svc.SubmitRecallText(r.Context(), a, req.Text)
	})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	s.advance(w, r, func(a recall.Attempt) (*session.Result, error) {
		return s.svc.AcknowledgeReveal(r.Context(), a)
	})
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	a, err := s.attempt(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Abandon(r.Context(), a); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.attempts.remove(a.ID)
	w.WriteHeader(http.StatusNoContent)
}
