package handlers

import (
	"net/http"

	"piqle_tournament/engine"
	"piqle_tournament/models"
)

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

type playoffRequest struct {
	BracketSize    int    `json:"bracket_size" validate:"omitempty,oneof=4 8 16 32 64"`
	Regenerate     bool   `json:"regenerate"`
	RegenerateType string `json:"regenerate_type" validate:"omitempty,oneof=rr playin playoff"`
	Confirm        bool   `json:"confirm"`
}

type afterPlayInRequest struct {
	BracketSize int `json:"bracket_size" validate:"omitempty,oneof=4 8 16 32 64"`
}

type swapRequest struct {
	Swaps []engine.Swap `json:"swaps" validate:"required,min=1,dive"`
}

// divisionOp runs a division mutation that takes no body and answers with the division.
func (h *Handler) divisionOp(w http.ResponseWriter, r *http.Request, op func(id uint) (*models.Division, error)) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	div, err := op(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, div)
}

func (h *Handler) GenerateRoundRobin(w http.ResponseWriter, r *http.Request) {
	h.divisionOp(w, r, func(id uint) (*models.Division, error) {
		return h.Engine.GenerateRoundRobin(r.Context(), id)
	})
}

// RegenerateRoundRobin needs {"confirm": true} once any result exists.
func (h *Handler) RegenerateRoundRobin(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.divisionOp(w, r, func(id uint) (*models.Division, error) {
		return h.Engine.RegenerateRoundRobin(r.Context(), id, engine.RegenerateOptions{Confirm: req.Confirm})
	})
}

func (h *Handler) GeneratePlayoffs(w http.ResponseWriter, r *http.Request) {
	var req playoffRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.divisionOp(w, r, func(id uint) (*models.Division, error) {
		return h.Engine.GeneratePlayoffs(r.Context(), id, req.BracketSize, engine.PlayoffOptions{
			Regenerate:     req.Regenerate,
			RegenerateType: req.RegenerateType,
			Confirm:        req.Confirm,
		})
	})
}

func (h *Handler) GeneratePlayoffAfterPlayIn(w http.ResponseWriter, r *http.Request) {
	var req afterPlayInRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.divisionOp(w, r, func(id uint) (*models.Division, error) {
		return h.Engine.GeneratePlayoffAfterPlayIn(r.Context(), id, req.BracketSize)
	})
}

func (h *Handler) GenerateNextPlayoffRound(w http.ResponseWriter, r *http.Request) {
	h.divisionOp(w, r, func(id uint) (*models.Division, error) {
		return h.Engine.GenerateNextPlayoffRound(r.Context(), id)
	})
}

func (h *Handler) SwapTeams(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.divisionOp(w, r, func(id uint) (*models.Division, error) {
		return h.Engine.SwapTeams(r.Context(), id, req.Swaps)
	})
}

func (h *Handler) TransitionToNextStage(w http.ResponseWriter, r *http.Request) {
	h.divisionOp(w, r, func(id uint) (*models.Division, error) {
		return h.Engine.TransitionToNextStage(r.Context(), id)
	})
}

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	table, err := h.Engine.ComputeStandings(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *Handler) GetBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	view, err := h.Engine.GetBracketView(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
