// Package engine drives a division through its stages: round robin, play-in
// and the elimination playoff. Every mutation runs in one transaction guarded
// by the division's version counter.
package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"piqle_tournament/apperr"
	"piqle_tournament/bracket"
	"piqle_tournament/mlp"
	"piqle_tournament/models"
	"piqle_tournament/standings"
)

// Regeneration targets.
const (
	RegenerateRR      = "rr"
	RegeneratePlayIn  = "playin"
	RegeneratePlayoff = "playoff"
)

// RegenerateOptions confirms tearing down a stage that already has results.
type RegenerateOptions struct {
	Confirm bool `json:"confirm"`
}

// PlayoffOptions controls GeneratePlayoffs.
type PlayoffOptions struct {
	Regenerate     bool   `json:"regenerate"`
	RegenerateType string `json:"regenerate_type" validate:"omitempty,oneof=rr playin playoff"`
	Confirm        bool   `json:"confirm"`
}

// Swap re-pairs one match of the current stage group.
type Swap struct {
	MatchID uint `json:"match_id" validate:"required"`
	TeamAID uint `json:"team_a_id" validate:"required"`
	TeamBID uint `json:"team_b_id" validate:"required,nefield=TeamAID"`
}

// ScoreInput is one game score entry.
type ScoreInput struct {
	MatchID   uint
	GameIndex int
	ScoreA    int
	ScoreB    int
}

// TiebreakerInput records the decider of a 2-2 MLP match.
type TiebreakerInput struct {
	MatchID    uint
	TeamAScore int
	TeamBScore int
	Sequence   models.ExchangeSequence
}

type Engine struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func New(db *gorm.DB, log logrus.FieldLogger) *Engine {
	return &Engine{db: db, log: log}
}

// mutate loads the division inside a transaction, runs fn against it and
// commits fn's changes together with the division's stage, bracket size and a
// bumped version. If another mutation bumped the version first nothing is
// written and a ConcurrencyError is returned.
func (e *Engine) mutate(ctx context.Context, divisionID uint, op string, fn func(tx *gorm.DB, div *models.Division) error) (*models.Division, error) {
	var div models.Division
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := loadDivision(tx, divisionID)
		if err != nil {
			return err
		}
		div = *loaded
		version := div.Version

		if err := fn(tx, &div); err != nil {
			return err
		}

		res := tx.Model(&models.Division{}).
			Where("id = ? AND version = ?", div.ID, version).
			Updates(map[string]interface{}{
				"stage":     div.Stage,
				"max_teams": div.MaxTeams,
				"version":   gorm.Expr("version + ?", 1),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &apperr.ConcurrencyError{DivisionID: div.ID}
		}
		div.Version = version + 1
		return nil
	})
	if lockContention(err) {
		err = &apperr.ConcurrencyError{DivisionID: divisionID}
	}

	entry := e.log.WithFields(logrus.Fields{
		"division_id": divisionID,
		"op":          op,
	})
	if err != nil {
		entry.WithError(err).Warn("division mutation rolled back")
		return nil, err
	}
	entry.WithFields(logrus.Fields{
		"stage":   div.Stage.String(),
		"version": div.Version,
	}).Info("division mutation committed")
	return &div, nil
}

// lockContention reports whether err is sqlite refusing a transaction because
// another connection holds the write lock.
func lockContention(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range []string{"database is locked", "database table is locked", "SQLITE_BUSY", "SQLITE_LOCKED"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func loadDivision(tx *gorm.DB, id uint) (*models.Division, error) {
	var div models.Division
	if err := tx.First(&div, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("division", id)
		}
		return nil, err
	}
	return &div, nil
}

// GetDivision returns the division with its pools, teams and matches.
func (e *Engine) GetDivision(ctx context.Context, id uint) (*models.Division, error) {
	var div models.Division
	err := e.snapshot(ctx, func(tx *gorm.DB) error {
		err := tx.
			Preload("Pools", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
			Preload("Teams", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
			Preload("Teams.Players").
			Preload("Matches", func(db *gorm.DB) *gorm.DB { return db.Order("stage, round_index, position, id") }).
			Preload("Matches.Games", func(db *gorm.DB) *gorm.DB { return db.Order("game_index") }).
			Preload("Matches.Tiebreaker").
			First(&div, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("division", id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &div, nil
}

func loadTeams(tx *gorm.DB, divisionID uint) ([]models.Team, error) {
	var teams []models.Team
	err := tx.Preload("Players").Where("division_id = ?", divisionID).Order("id").Find(&teams).Error
	return teams, err
}

func teamCount(tx *gorm.DB, divisionID uint) (int, error) {
	var n int64
	err := tx.Model(&models.Team{}).Where("division_id = ?", divisionID).Count(&n).Error
	return int(n), err
}

func loadMatches(tx *gorm.DB, divisionID uint, stages ...models.MatchStage) ([]models.Match, error) {
	var matches []models.Match
	err := tx.Preload("Games", func(db *gorm.DB) *gorm.DB { return db.Order("game_index") }).
		Preload("Tiebreaker").
		Where("division_id = ? AND stage IN ?", divisionID, stages).
		Order("round_index, position, id").
		Find(&matches).Error
	return matches, err
}

func loadMatch(tx *gorm.DB, id uint) (*models.Match, error) {
	var m models.Match
	err := tx.Preload("Games", func(db *gorm.DB) *gorm.DB { return db.Order("game_index") }).
		Preload("Tiebreaker").
		First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("match", id)
		}
		return nil, err
	}
	return &m, nil
}

func teamIndex(teams []models.Team) map[uint]models.Team {
	idx := make(map[uint]models.Team, len(teams))
	for _, t := range teams {
		idx[t.ID] = t
	}
	return idx
}

// createMatches persists generated matches. MLP matches get their 4 games
// with players assigned from the rosters.
func createMatches(tx *gorm.DB, div *models.Division, teams map[uint]models.Team, generated []models.GeneratedMatch) error {
	for _, g := range generated {
		row := g.Row(div.ID)
		if div.IsMLP() {
			games, err := mlp.AssignGames(teams[row.TeamAID], teams[row.TeamBID])
			if err != nil {
				return err
			}
			row.Games = games
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// deleteMatches hard deletes the matches of the given stages with their games
// and tiebreakers. Deleting nothing is not an error.
func deleteMatches(tx *gorm.DB, divisionID uint, stages ...models.MatchStage) (int, error) {
	var ids []uint
	if err := tx.Unscoped().Model(&models.Match{}).
		Where("division_id = ? AND stage IN ?", divisionID, stages).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := tx.Unscoped().Where("match_id IN ?", ids).Delete(&models.Game{}).Error; err != nil {
		return 0, err
	}
	if err := tx.Unscoped().Where("match_id IN ?", ids).Delete(&models.Tiebreaker{}).Error; err != nil {
		return 0, err
	}
	if err := tx.Unscoped().Where("id IN ?", ids).Delete(&models.Match{}).Error; err != nil {
		return 0, err
	}
	return len(ids), nil
}

// matchComplete reports whether a match counts as played for its stage.
// Round robin only needs a score (level results are allowed) unless the
// division plays MLP; knockout matches need a winner.
func matchComplete(m *models.Match, format models.Format) bool {
	if m.Stage == models.MatchStageRoundRobin && format != models.FormatMLP {
		return m.HasResult()
	}
	return mlp.Resolve(m, format).Decided()
}

func pendingCount(matches []models.Match, format models.Format) int {
	n := 0
	for i := range matches {
		if !matchComplete(&matches[i], format) {
			n++
		}
	}
	return n
}

func highestRound(matches []models.Match) int {
	h := -1
	for _, m := range matches {
		if m.Stage == models.MatchStageElimination && m.RoundIndex > h {
			h = m.RoundIndex
		}
	}
	return h
}

func inRound(matches []models.Match, round int) []models.Match {
	var out []models.Match
	for _, m := range matches {
		if m.RoundIndex == round {
			out = append(out, m)
		}
	}
	return out
}

// currentGroup returns the matches whose results decide the current stage:
// the round robin, the play-in, or the highest elimination round.
func currentGroup(tx *gorm.DB, div *models.Division) ([]models.Match, error) {
	group := div.Stage.Group()
	if group == "" {
		return nil, nil
	}
	matches, err := loadMatches(tx, div.ID, group)
	if err != nil {
		return nil, err
	}
	if group == models.MatchStageElimination {
		return inRound(matches, highestRound(matches)), nil
	}
	return matches, nil
}

// requireComplete fails with IncompleteStageError while any match of the
// current group is unplayed.
func requireComplete(tx *gorm.DB, div *models.Division) ([]models.Match, error) {
	matches, err := currentGroup(tx, div)
	if err != nil {
		return nil, err
	}
	if n := pendingCount(matches, div.Format); n > 0 || len(matches) == 0 {
		return nil, &apperr.IncompleteStageError{Stage: div.Stage.String(), Pending: n}
	}
	return matches, nil
}

// ranked computes the round robin table and returns it as bracket entrants.
func ranked(tx *gorm.DB, divisionID uint) ([]bracket.Entrant, []standings.Standing, error) {
	teams, err := loadTeams(tx, divisionID)
	if err != nil {
		return nil, nil, err
	}
	rr, err := loadMatches(tx, divisionID, models.MatchStageRoundRobin)
	if err != nil {
		return nil, nil, err
	}
	table := standings.Compute(teams, rr)
	out := make([]bracket.Entrant, len(table))
	for i, s := range table {
		out[i] = bracket.Entrant{TeamID: s.TeamID, Name: s.TeamName, Seed: s.Rank}
	}
	return out, table, nil
}

func toResults(matches []models.Match, format models.Format) []bracket.Result {
	out := make([]bracket.Result, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		out = append(out, bracket.Result{
			MatchID:      m.ID,
			Stage:        m.Stage,
			RoundIndex:   m.RoundIndex,
			Position:     m.Position,
			TeamAID:      m.TeamAID,
			TeamBID:      m.TeamBID,
			WinnerTeamID: mlp.Resolve(m, format).WinnerTeamID,
			Started:      m.HasResult(),
		})
	}
	return out
}

func anyResult(matches []models.Match) bool {
	for i := range matches {
		if matches[i].HasResult() {
			return true
		}
	}
	return false
}
