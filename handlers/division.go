package handlers

import (
	"net/http"

	"piqle_tournament/engine"
	"piqle_tournament/models"
)

// GetDivisions lists divisions without their matches. ?format=MLP filters by format.
func (h *Handler) GetDivisions(w http.ResponseWriter, r *http.Request) {
	var divisions []models.Division
	query := h.DB.WithContext(r.Context()).Order("id")
	if f := r.URL.Query().Get("format"); f != "" {
		query = query.Where("format = ?", f)
	}
	if err := query.Find(&divisions).Error; err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, divisions)
}

func (h *Handler) CreateDivision(w http.ResponseWriter, r *http.Request) {
	var req engine.DivisionInput
	if !h.decode(w, r, &req) {
		return
	}
	div, err := h.Engine.CreateDivision(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, div)
}

// GetDivisionDetails returns the division with pools, rosters and matches.
func (h *Handler) GetDivisionDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	div, err := h.Engine.GetDivision(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, div)
}

func (h *Handler) CreatePool(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req engine.PoolInput
	if !h.decode(w, r, &req) {
		return
	}
	pool, err := h.Engine.AddPool(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pool)
}

// AddTeam registers a team with an optional roster and pool.
func (h *Handler) AddTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req engine.TeamInput
	if !h.decode(w, r, &req) {
		return
	}
	team, err := h.Engine.AddTeam(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

// RemoveTeam is only allowed before round robin is generated.
func (h *Handler) RemoveTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	teamID, ok := idParam(w, r, "teamId")
	if !ok {
		return
	}
	if err := h.Engine.RemoveTeam(r.Context(), id, teamID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req engine.PlayerInput
	if !h.decode(w, r, &req) {
		return
	}
	player, err := h.Engine.AddPlayer(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}
