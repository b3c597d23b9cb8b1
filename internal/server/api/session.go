// Package api provides HTTP API handlers for the rep counting session.
package api

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/session"
)

// SessionHandler handles HTTP requests for the session resource.
type SessionHandler struct {
	session *session.Session
	log     *log.Entry
}

// NewSessionHandler creates a new SessionHandler for s.
func NewSessionHandler(s *session.Session, entry *log.Entry) *SessionHandler {
	return &SessionHandler{session: s, log: entry}
}

type selectRequest struct {
	Exercise string `json:"exercise"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type exercisesResponse struct {
	Exercises []exerciseInfo `json:"exercises"`
}

type exerciseInfo struct {
	ID    exercise.Kind `json:"id"`
	Label string        `json:"label"`
}

// writeJSON writes data as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// HandleGet handles GET /api/session.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// HandleExercises handles GET /api/exercises.
func (h *SessionHandler) HandleExercises(w http.ResponseWriter, r *http.Request) {
	var resp exercisesResponse
	for _, k := range exercise.Kinds() {
		resp.Exercises = append(resp.Exercises, exerciseInfo{ID: k, Label: k.Label()})
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSelect handles PUT /api/session/exercise.
func (h *SessionHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	kind, err := exercise.ParseKind(req.Exercise)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.session.Select(kind); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// HandleReset handles POST /api/session/reset.
func (h *SessionHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// HandleRestart handles POST /api/session/restart.
func (h *SessionHandler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	id := h.session.Restart()
	h.log.WithField("session", id.String()).Debug("restart requested over http")
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}
