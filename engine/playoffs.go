package engine

import (
	"context"

	"gorm.io/gorm"

	"piqle_tournament/apperr"
	"piqle_tournament/bracket"
	"piqle_tournament/models"
)

// bracketSize picks the size stored on the division, or the bucket for the team count.
func bracketSize(div *models.Division, teams int) int {
	if bracket.ValidSize(div.MaxTeams) {
		return div.MaxTeams
	}
	return bracket.TargetBracketSize(teams)
}

// writeSeeds stores each team's final round robin rank.
func writeSeeds(tx *gorm.DB, field []bracket.Entrant) error {
	for _, en := range field {
		if err := tx.Model(&models.Team{}).Where("id = ?", en.TeamID).Update("seed", en.Seed).Error; err != nil {
			return err
		}
	}
	return nil
}

// startPlayoffs leaves the round robin: seeds are fixed from the standings and
// either the play-in or the first elimination round is scheduled.
func (e *Engine) startPlayoffs(tx *gorm.DB, div *models.Division, size int) error {
	if !bracket.ValidSize(size) {
		return apperr.Validation("bracket size %d is not one of %v", size, bracket.Sizes)
	}
	field, _, err := ranked(tx, div.ID)
	if err != nil {
		return err
	}
	if len(field) < size {
		return apperr.Validation("a bracket of %d needs at least %d teams, division has %d", size, size, len(field))
	}
	if err := writeSeeds(tx, field); err != nil {
		return err
	}
	div.MaxTeams = size

	teams, err := loadTeams(tx, div.ID)
	if err != nil {
		return err
	}
	plan := bracket.NewPlan(len(field), size, div.Format)
	qualified, playIn := bracket.Split(field, plan)

	e.log.WithField("division_id", div.ID).WithField("plan", plan).Info("playoffs planned")

	if plan.HasPlayIn() {
		generated := make([]models.GeneratedMatch, len(playIn))
		for i, p := range playIn {
			generated[i] = p.Match()
		}
		if err := createMatches(tx, div, teamIndex(teams), generated); err != nil {
			return err
		}
		div.Stage = models.StageOf(models.StagePlayInScheduled)
		return nil
	}

	tree := bracket.Build(bracket.Input{
		Size:       size,
		Qualified:  qualified,
		ThirdPlace: !div.SkipThirdPlace,
	})
	return scheduleNext(tx, div, teams, tree, 0)
}

// scheduleNext persists the first round after `after` that has a real match
// and moves the division to that round's scheduled stage.
func scheduleNext(tx *gorm.DB, div *models.Division, teams []models.Team, tree *bracket.Tree, after int) error {
	r := tree.NextPlayableRound(after)
	if r == 0 {
		return apperr.State("no playoff round left to schedule")
	}
	playable := tree.Playable(r)
	generated := make([]models.GeneratedMatch, len(playable))
	for i, m := range playable {
		generated[i] = m
	}
	if err := createMatches(tx, div, teamIndex(teams), generated); err != nil {
		return err
	}
	if r == tree.Rounds {
		div.Stage = models.StageOf(models.StageFinalScheduled)
	} else {
		div.Stage = models.PlayoffScheduled(r)
	}
	return nil
}

// playoffTree rebuilds the bracket from the standings and the persisted
// play-in and elimination rows.
func playoffTree(tx *gorm.DB, div *models.Division, size int) (*bracket.Tree, error) {
	field, _, err := ranked(tx, div.ID)
	if err != nil {
		return nil, err
	}
	plan := bracket.NewPlan(len(field), size, div.Format)
	qualified, playIn := bracket.Split(field, plan)

	matches, err := loadMatches(tx, div.ID, models.MatchStagePlayIn, models.MatchStageElimination)
	if err != nil {
		return nil, err
	}
	return bracket.Build(bracket.Input{
		Size:       size,
		Qualified:  qualified,
		PlayIn:     playIn,
		Results:    toResults(matches, div.Format),
		ThirdPlace: !div.SkipThirdPlace,
	}), nil
}

// GeneratePlayoffs leaves the round robin and schedules the play-in or the
// first elimination round for a bracket of size teams. A size of 0 uses the
// division's max teams, or the bucket for its team count.
//
// With Regenerate set the named stage is torn down first: "playin" drops the
// play-in and everything after it, "playoff" only the elimination rounds, and
// "rr" regenerates the round robin. Stages holding results are only torn down
// when Confirm is set.
func (e *Engine) GeneratePlayoffs(ctx context.Context, divisionID uint, size int, opts PlayoffOptions) (*models.Division, error) {
	return e.mutate(ctx, divisionID, "generate_playoffs", func(tx *gorm.DB, div *models.Division) error {
		if size == 0 {
			teams, err := teamCount(tx, div.ID)
			if err != nil {
				return err
			}
			size = bracketSize(div, teams)
		}
		if !opts.Regenerate {
			if div.Stage.Group() != models.MatchStageRoundRobin {
				return apperr.State("playoffs can only be generated after round robin (stage %s)", div.Stage)
			}
			if _, err := requireComplete(tx, div); err != nil {
				return err
			}
			return e.startPlayoffs(tx, div, size)
		}

		switch opts.RegenerateType {
		case RegenerateRR:
			return e.regenerateRoundRobin(tx, div, opts.Confirm)
		case RegeneratePlayIn:
			return e.regeneratePlayIn(tx, div, size, opts.Confirm)
		case RegeneratePlayoff:
			return e.regeneratePlayoff(tx, div, size, opts.Confirm)
		}
		return apperr.Validation("regenerate type must be one of %s, %s, %s", RegenerateRR, RegeneratePlayIn, RegeneratePlayoff)
	})
}

// teardown deletes the given stages, refusing when they hold results unless confirmed.
func teardown(tx *gorm.DB, div *models.Division, confirm bool, stages ...models.MatchStage) error {
	existing, err := loadMatches(tx, div.ID, stages...)
	if err != nil {
		return err
	}
	if anyResult(existing) && !confirm {
		return apperr.State("%v already has results, confirm to discard them", stages)
	}
	_, err = deleteMatches(tx, div.ID, stages...)
	return err
}

func (e *Engine) regeneratePlayIn(tx *gorm.DB, div *models.Division, size int, confirm bool) error {
	if div.Stage.Kind == models.StageNone {
		return apperr.State("round robin has not been generated")
	}
	if err := teardown(tx, div, confirm, models.MatchStagePlayIn, models.MatchStageElimination); err != nil {
		return err
	}
	div.Stage = models.StageOf(models.StageRRComplete)
	if _, err := requireComplete(tx, div); err != nil {
		return err
	}
	return e.startPlayoffs(tx, div, size)
}

func (e *Engine) regeneratePlayoff(tx *gorm.DB, div *models.Division, size int, confirm bool) error {
	if div.Stage.Kind == models.StageNone {
		return apperr.State("round robin has not been generated")
	}
	if err := teardown(tx, div, confirm, models.MatchStageElimination); err != nil {
		return err
	}

	playIn, err := loadMatches(tx, div.ID, models.MatchStagePlayIn)
	if err != nil {
		return err
	}
	if len(playIn) == 0 {
		div.Stage = models.StageOf(models.StageRRComplete)
		if _, err := requireComplete(tx, div); err != nil {
			return err
		}
		return e.startPlayoffs(tx, div, size)
	}

	if size != div.MaxTeams {
		return apperr.Validation("the play-in fixes the bracket at %d teams, regenerate the play-in to change it", div.MaxTeams)
	}
	div.Stage = models.StageOf(models.StagePlayInComplete)
	return e.afterPlayIn(tx, div, size)
}

// GeneratePlayoffAfterPlayIn schedules the first elimination round once every
// play-in match has a winner.
func (e *Engine) GeneratePlayoffAfterPlayIn(ctx context.Context, divisionID uint, size int) (*models.Division, error) {
	return e.mutate(ctx, divisionID, "generate_playoff_after_play_in", func(tx *gorm.DB, div *models.Division) error {
		if div.Stage.Group() != models.MatchStagePlayIn {
			return apperr.State("no play-in in progress (stage %s)", div.Stage)
		}
		if size == 0 {
			size = div.MaxTeams
		}
		if size != div.MaxTeams {
			return apperr.Validation("the play-in was generated for a bracket of %d, not %d", div.MaxTeams, size)
		}
		return e.afterPlayIn(tx, div, size)
	})
}

func (e *Engine) afterPlayIn(tx *gorm.DB, div *models.Division, size int) error {
	if _, err := requireComplete(tx, div); err != nil {
		return err
	}
	var existing int64
	if err := tx.Model(&models.Match{}).
		Where("division_id = ? AND stage = ?", div.ID, models.MatchStageElimination).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return apperr.State("elimination rounds already exist, regenerate the playoff instead")
	}

	tree, err := playoffTree(tx, div, size)
	if err != nil {
		return err
	}
	teams, err := loadTeams(tx, div.ID)
	if err != nil {
		return err
	}
	return scheduleNext(tx, div, teams, tree, 0)
}

// GenerateNextPlayoffRound schedules the round after the highest one once it
// is fully decided. The final round is terminal.
func (e *Engine) GenerateNextPlayoffRound(ctx context.Context, divisionID uint) (*models.Division, error) {
	return e.mutate(ctx, divisionID, "generate_next_playoff_round", func(tx *gorm.DB, div *models.Division) error {
		if div.Stage.Group() != models.MatchStageElimination {
			return apperr.State("no playoff round in progress (stage %s)", div.Stage)
		}
		return e.nextRound(tx, div)
	})
}

func (e *Engine) nextRound(tx *gorm.DB, div *models.Division) error {
	current, err := requireComplete(tx, div)
	if err != nil {
		return err
	}
	tree, err := playoffTree(tx, div, div.MaxTeams)
	if err != nil {
		return err
	}
	round := current[0].RoundIndex + 1
	if round >= tree.Rounds {
		return apperr.State("the final round is already scheduled")
	}
	teams, err := loadTeams(tx, div.ID)
	if err != nil {
		return err
	}
	return scheduleNext(tx, div, teams, tree, round)
}
