package handlers

import (
	"net/http"

	"piqle_tournament/engine"
	"piqle_tournament/models"
)

// ScoreRequest is the score of one game. game_index is 0-3 for MLP matches.
type ScoreRequest struct {
	GameIndex int  `json:"game_index" validate:"min=0"`
	ScoreA    *int `json:"score_a" validate:"required,min=0"`
	ScoreB    *int `json:"score_b" validate:"required,min=0"`
}

// TiebreakerRequest decides an MLP match tied 2-2.
type TiebreakerRequest struct {
	TeamAScore *int                    `json:"team_a_score" validate:"required,min=0"`
	TeamBScore *int                    `json:"team_b_score" validate:"required,min=0"`
	Sequence   models.ExchangeSequence `json:"sequence"`
}

// UpdateMatchScore records one game. It may complete the stage but never
// schedules the next one.
func (h *Handler) UpdateMatchScore(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req ScoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.Engine.UpdateMatchResult(r.Context(), engine.ScoreInput{
		MatchID:   id,
		GameIndex: req.GameIndex,
		ScoreA:    *req.ScoreA,
		ScoreB:    *req.ScoreB,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) SaveTiebreaker(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req TiebreakerRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.Engine.SaveTiebreaker(r.Context(), engine.TiebreakerInput{
		MatchID:    id,
		TeamAScore: *req.TeamAScore,
		TeamBScore: *req.TeamBScore,
		Sequence:   req.Sequence,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) LockMatch(w http.ResponseWriter, r *http.Request) {
	h.setLocked(w, r, true)
}

func (h *Handler) UnlockMatch(w http.ResponseWriter, r *http.Request) {
	h.setLocked(w, r, false)
}

func (h *Handler) setLocked(w http.ResponseWriter, r *http.Request, locked bool) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var (
		m   *models.Match
		err error
	)
	if locked {
		m, err = h.Engine.LockMatch(r.Context(), id)
	} else {
		m, err = h.Engine.UnlockMatch(r.Context(), id)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
