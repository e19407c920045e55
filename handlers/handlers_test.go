package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piqle_tournament/db"
	"piqle_tournament/engine"
)

type divisionBody struct {
	ID      uint   `json:"ID"`
	Stage   string `json:"stage"`
	Version int    `json:"version"`
	Matches []struct {
		ID    uint   `json:"ID"`
		Stage string `json:"stage"`
	} `json:"matches"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	g, err := db.OpenMemory()
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	h := New(g, engine.New(g, log), log)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestDivisionLifecycle(t *testing.T) {
	r := newRouter(t)

	rec := do(t, r, http.MethodPost, "/divisions", map[string]interface{}{"name": "Open 3.5"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var div divisionBody
	decodeBody(t, rec, &div)
	base := fmt.Sprintf("/divisions/%d", div.ID)

	for i := 1; i <= 4; i++ {
		rec = do(t, r, http.MethodPost, base+"/teams", map[string]interface{}{"name": fmt.Sprintf("Team %d", i)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodPost, base+"/round-robin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &div)
	assert.Equal(t, "RR_IN_PROGRESS", div.Stage)
	assert.Equal(t, 5, div.Version, "four team inserts and the generation")

	rec = do(t, r, http.MethodPost, base+"/transition", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	var incomplete struct {
		Pending int `json:"pending"`
	}
	decodeBody(t, rec, &incomplete)
	assert.Equal(t, 6, incomplete.Pending)

	rec = do(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &div)
	require.Len(t, div.Matches, 6)
	for _, m := range div.Matches {
		rec = do(t, r, http.MethodPost, fmt.Sprintf("/matches/%d/score", m.ID), map[string]interface{}{"score_a": 11, "score_b": 7})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodGet, base+"/standings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var table []map[string]interface{}
	decodeBody(t, rec, &table)
	assert.Len(t, table, 4)

	rec = do(t, r, http.MethodPost, base+"/transition", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &div)
	assert.Equal(t, "PO_R1_SCHEDULED", div.Stage)

	rec = do(t, r, http.MethodGet, base+"/bracket", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Plan struct {
			BracketSize int `json:"bracket_size"`
		} `json:"plan"`
		Tree map[string]interface{} `json:"tree"`
	}
	decodeBody(t, rec, &view)
	assert.Equal(t, 4, view.Plan.BracketSize)
	assert.NotEmpty(t, view.Tree)

	rec = do(t, r, http.MethodDelete, base+"/teams/1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "teams are fixed after round robin")

	rec = do(t, r, http.MethodGet, "/divisions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []divisionBody
	decodeBody(t, rec, &all)
	assert.Len(t, all, 1)
}

func TestErrorMapping(t *testing.T) {
	r := newRouter(t)
	rec := do(t, r, http.MethodPost, "/divisions", map[string]interface{}{"name": "Mixed", "format": "MLP"})
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"missing name", http.MethodPost, "/divisions", map[string]interface{}{}, http.StatusBadRequest},
		{"bad format", http.MethodPost, "/divisions", map[string]interface{}{"name": "X", "format": "DOUBLES"}, http.StatusBadRequest},
		{"bad bracket size", http.MethodPost, "/divisions", map[string]interface{}{"name": "X", "max_teams": 6}, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/divisions", "{", http.StatusBadRequest},
		{"non numeric id", http.MethodPost, "/divisions/abc/round-robin", nil, http.StatusBadRequest},
		{"unknown division", http.MethodPost, "/divisions/999/round-robin", nil, http.StatusNotFound},
		{"unknown match", http.MethodPost, "/matches/999/score", map[string]interface{}{"score_a": 1, "score_b": 2}, http.StatusNotFound},
		{"negative score", http.MethodPost, "/matches/1/score", map[string]interface{}{"score_a": -1, "score_b": 2}, http.StatusBadRequest},
		{"missing score", http.MethodPost, "/matches/1/score", map[string]interface{}{"score_a": 3}, http.StatusBadRequest},
		{"bad gender", http.MethodPost, "/divisions/1/teams", map[string]interface{}{"name": "T", "players": []map[string]string{{"first_name": "A", "gender": "X"}}}, http.StatusBadRequest},
		{"too few teams", http.MethodPost, "/divisions/1/round-robin", nil, http.StatusBadRequest},
		{"playoffs before round robin", http.MethodPost, "/divisions/1/playoffs", nil, http.StatusConflict},
		{"bad regenerate type", http.MethodPost, "/divisions/1/playoffs", map[string]interface{}{"regenerate": true, "regenerate_type": "all"}, http.StatusBadRequest},
		{"empty swaps", http.MethodPost, "/divisions/1/swaps", map[string]interface{}{"swaps": []interface{}{}}, http.StatusBadRequest},
		{"swap with itself", http.MethodPost, "/divisions/1/swaps", map[string]interface{}{"swaps": []map[string]int{{"match_id": 1, "team_a_id": 2, "team_b_id": 2}}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec *httptest.ResponseRecorder
			if s, ok := tt.body.(string); ok {
				req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(s))
				rec = httptest.NewRecorder()
				r.ServeHTTP(rec, req)
			} else {
				rec = do(t, r, tt.method, tt.path, tt.body)
			}
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestMLPScoringOverHTTP(t *testing.T) {
	r := newRouter(t)
	rec := do(t, r, http.MethodPost, "/divisions", map[string]interface{}{"name": "Mixed", "format": "MLP"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var div divisionBody
	decodeBody(t, rec, &div)
	base := fmt.Sprintf("/divisions/%d", div.ID)

	roster := []map[string]string{
		{"first_name": "Ann", "gender": "F"},
		{"first_name": "Bea", "gender": "F"},
		{"first_name": "Cal", "gender": "M"},
	}
	for i := 1; i <= 2; i++ {
		rec = do(t, r, http.MethodPost, base+"/teams", map[string]interface{}{"name": fmt.Sprintf("Team %d", i), "players": roster})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var team struct {
			ID uint `json:"ID"`
		}
		decodeBody(t, rec, &team)
		rec = do(t, r, http.MethodPost, fmt.Sprintf("/teams/%d/players", team.ID), map[string]string{"first_name": "Dan", "gender": "M"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodPost, base+"/round-robin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &div)

	rec = do(t, r, http.MethodGet, base, nil)
	decodeBody(t, rec, &div)
	require.Len(t, div.Matches, 1)
	match := fmt.Sprintf("/matches/%d", div.Matches[0].ID)

	rec = do(t, r, http.MethodPost, match+"/tiebreaker", map[string]int{"team_a_score": 5, "team_b_score": 3})
	assert.Equal(t, http.StatusConflict, rec.Code, "no 2-2 yet")

	for i, s := range [][2]int{{11, 5}, {5, 11}, {11, 9}, {6, 11}} {
		rec = do(t, r, http.MethodPost, match+"/score", map[string]int{"game_index": i, "score_a": s[0], "score_b": s[1]})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodPost, match+"/lock", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, r, http.MethodPost, match+"/tiebreaker", map[string]int{"team_a_score": 5, "team_b_score": 3})
	assert.Equal(t, http.StatusConflict, rec.Code, "locked")
	rec = do(t, r, http.MethodPost, match+"/unlock", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, match+"/tiebreaker", map[string]int{"team_a_score": 5, "team_b_score": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var m struct {
		TeamAID    uint `json:"team_a_id"`
		Tiebreaker struct {
			WinnerTeamID uint `json:"winner_team_id"`
		} `json:"tiebreaker"`
	}
	decodeBody(t, rec, &m)
	assert.Equal(t, m.TeamAID, m.Tiebreaker.WinnerTeamID)

	rec = do(t, r, http.MethodGet, base, nil)
	decodeBody(t, rec, &div)
	assert.Equal(t, "RR_COMPLETE", div.Stage)
}

func TestParseError(t *testing.T) {
	h := New(nil, nil, nil)
	err := h.validate.Struct(engine.PlayerInput{FirstName: "", Gender: "X"})
	got := ParseError(err)
	assert.Contains(t, got, "PlayerInput.FirstName")
	assert.Contains(t, got["PlayerInput.Gender"], "oneof")

	assert.Equal(t, map[string]string{"error": "boom"}, ParseError(fmt.Errorf("boom")))
	assert.Empty(t, ParseError(nil))
}
