package engine

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"piqle_tournament/apperr"
	"piqle_tournament/models"
)

// circlePairings schedules a single round robin with the circle method: the
// first team stays put while the others rotate. An odd field gets a dummy
// team 0 and whoever meets it sits the round out.
func circlePairings(teamIDs []uint, poolID *uint) []models.RoundRobinMatch {
	n := len(teamIDs)
	if n < 2 {
		return nil
	}
	players := append([]uint(nil), teamIDs...)
	if n%2 != 0 {
		players = append(players, 0)
		n++
	}

	var matches []models.RoundRobinMatch
	for round := 0; round < n-1; round++ {
		for i := 0; i < n/2; i++ {
			a, b := players[i], players[n-1-i]
			if a != 0 && b != 0 {
				matches = append(matches, models.RoundRobinMatch{
					TeamAID:    a,
					TeamBID:    b,
					RoundIndex: round,
					PoolID:     poolID,
				})
			}
		}
		players = append([]uint{players[0]}, append([]uint{players[n-1]}, players[1:n-1]...)...)
	}
	return matches
}

// roundRobinSchedule pairs every pool separately, then the teams without a pool.
// Round indices continue from one pool to the next.
func roundRobinSchedule(pools []models.Pool, teams []models.Team) []models.GeneratedMatch {
	byPool := make(map[uint][]uint)
	var unpooled []uint
	known := make(map[uint]bool, len(pools))
	for _, p := range pools {
		known[p.ID] = true
	}
	for _, t := range teams {
		if t.PoolID != nil && known[*t.PoolID] {
			byPool[*t.PoolID] = append(byPool[*t.PoolID], t.ID)
			continue
		}
		unpooled = append(unpooled, t.ID)
	}

	var out []models.GeneratedMatch
	offset := 0
	add := func(matches []models.RoundRobinMatch) {
		rounds := 0
		for _, m := range matches {
			if m.RoundIndex+1 > rounds {
				rounds = m.RoundIndex + 1
			}
			m.RoundIndex += offset
			out = append(out, m)
		}
		offset += rounds
	}
	for _, p := range pools {
		id := p.ID
		add(circlePairings(byPool[id], &id))
	}
	add(circlePairings(unpooled, nil))
	return out
}

func (e *Engine) scheduleRoundRobin(tx *gorm.DB, div *models.Division) error {
	teams, err := loadTeams(tx, div.ID)
	if err != nil {
		return err
	}
	if len(teams) < 2 {
		return apperr.Validation("division %d needs at least 2 teams for round robin, has %d", div.ID, len(teams))
	}
	var pools []models.Pool
	if err := tx.Where("division_id = ?", div.ID).Order("sort_order, id").Find(&pools).Error; err != nil {
		return err
	}

	generated := roundRobinSchedule(pools, teams)
	if len(generated) == 0 {
		return apperr.Validation("no pool has at least 2 teams")
	}
	if err := createMatches(tx, div, teamIndex(teams), generated); err != nil {
		return err
	}
	if err := tx.Model(&models.Team{}).Where("division_id = ?", div.ID).Update("seed", 0).Error; err != nil {
		return err
	}
	div.Stage = models.StageOf(models.StageRRInProgress)
	return nil
}

// GenerateRoundRobin creates the round robin of a division that has none yet.
func (e *Engine) GenerateRoundRobin(ctx context.Context, divisionID uint) (*models.Division, error) {
	return e.mutate(ctx, divisionID, "generate_round_robin", func(tx *gorm.DB, div *models.Division) error {
		if div.Stage.Kind != models.StageNone {
			return apperr.State("round robin already generated (stage %s), regenerate it instead", div.Stage)
		}
		return e.scheduleRoundRobin(tx, div)
	})
}

// RegenerateRoundRobin throws the round robin away and schedules it again,
// from any stage. A play-in and playoff built on the old standings go with it.
// Existing results are only discarded when confirmed.
func (e *Engine) RegenerateRoundRobin(ctx context.Context, divisionID uint, opts RegenerateOptions) (*models.Division, error) {
	return e.mutate(ctx, divisionID, "regenerate_round_robin", func(tx *gorm.DB, div *models.Division) error {
		return e.regenerateRoundRobin(tx, div, opts.Confirm)
	})
}

func (e *Engine) regenerateRoundRobin(tx *gorm.DB, div *models.Division, confirm bool) error {
	stages := []models.MatchStage{models.MatchStageRoundRobin, models.MatchStagePlayIn, models.MatchStageElimination}
	existing, err := loadMatches(tx, div.ID, stages...)
	if err != nil {
		return err
	}
	if anyResult(existing) && !confirm {
		return apperr.State("division %d already has results, confirm to discard them", div.ID)
	}
	deleted, err := deleteMatches(tx, div.ID, stages...)
	if err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{
		"division_id": div.ID,
		"from_stage":  div.Stage.String(),
		"deleted":     deleted,
	}).Debug("round robin torn down")
	return e.scheduleRoundRobin(tx, div)
}
