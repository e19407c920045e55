package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"piqle_tournament/apperr"
	"piqle_tournament/engine"
)

// Handler serves the division HTTP API on top of the stage engine.
type Handler struct {
	DB       *gorm.DB
	Engine   *engine.Engine
	Log      logrus.FieldLogger
	validate *validator.Validate
}

func New(db *gorm.DB, eng *engine.Engine, log logrus.FieldLogger) *Handler {
	return &Handler{DB: db, Engine: eng, Log: log, validate: validator.New()}
}

// Routes mounts every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/divisions", h.GetDivisions)
	r.Post("/divisions", h.CreateDivision)
	r.Get("/divisions/{id}", h.GetDivisionDetails)
	r.Post("/divisions/{id}/pools", h.CreatePool)
	r.Post("/divisions/{id}/teams", h.AddTeam)
	r.Delete("/divisions/{id}/teams/{teamId}", h.RemoveTeam)
	r.Post("/teams/{id}/players", h.AddPlayer)

	r.Post("/divisions/{id}/round-robin", h.GenerateRoundRobin)
	r.Post("/divisions/{id}/round-robin/regenerate", h.RegenerateRoundRobin)
	r.Post("/divisions/{id}/playoffs", h.GeneratePlayoffs)
	r.Post("/divisions/{id}/playoffs/after-play-in", h.GeneratePlayoffAfterPlayIn)
	r.Post("/divisions/{id}/playoffs/next-round", h.GenerateNextPlayoffRound)
	r.Post("/divisions/{id}/swaps", h.SwapTeams)
	r.Post("/divisions/{id}/transition", h.TransitionToNextStage)
	r.Get("/divisions/{id}/standings", h.GetStandings)
	r.Get("/divisions/{id}/bracket", h.GetBracket)

	r.Post("/matches/{id}/score", h.UpdateMatchScore)
	r.Post("/matches/{id}/tiebreaker", h.SaveTiebreaker)
	r.Post("/matches/{id}/lock", h.LockMatch)
	r.Post("/matches/{id}/unlock", h.UnlockMatch)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps engine errors onto status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ce         *apperr.ConcurrencyError
		nf         *apperr.NotFoundError
		ve         *apperr.ValidationError
		incomplete *apperr.IncompleteStageError
		se         *apperr.StateError
	)
	switch {
	case errors.As(err, &ce):
		writeJSON(w, http.StatusConflict, map[string]interface{}{"error": err.Error(), "retry": true})
	case errors.As(err, &nf):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.As(err, &ve):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &incomplete):
		writeJSON(w, http.StatusConflict, map[string]interface{}{"error": err.Error(), "pending": incomplete.Pending})
	case errors.As(err, &se):
		writeMessage(w, http.StatusConflict, err.Error())
	default:
		h.Log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// decode reads an optional JSON body into dst and validates it. An empty body
// leaves dst at its zero value.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": ParseError(err)})
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
