package engine

import (
	"context"

	"gorm.io/gorm"

	"piqle_tournament/apperr"
	"piqle_tournament/models"
)

// TransitionToNextStage moves the division on once the current stage is fully
// played, creating the next stage's matches in the same transaction:
//
//	RR_*           -> PLAY_IN_SCHEDULED, PO_R1_SCHEDULED or FINAL_SCHEDULED
//	PLAY_IN_*      -> PO_R1_SCHEDULED or FINAL_SCHEDULED
//	PO_Rn_*        -> PO_R(n+1)_SCHEDULED or FINAL_SCHEDULED
//	FINAL_*        -> DIVISION_COMPLETE
//
// Completeness is checked again here, so the _SCHEDULED form works as well as _COMPLETE.
func (e *Engine) TransitionToNextStage(ctx context.Context, divisionID uint) (*models.Division, error) {
	return e.mutate(ctx, divisionID, "transition", func(tx *gorm.DB, div *models.Division) error {
		switch div.Stage.Kind {
		case models.StageNone:
			return apperr.State("round robin has not been generated")
		case models.StageDivisionComplete:
			return apperr.State("division is already complete")
		}

		if _, err := requireComplete(tx, div); err != nil {
			return err
		}

		switch div.Stage.Group() {
		case models.MatchStageRoundRobin:
			teams, err := teamCount(tx, div.ID)
			if err != nil {
				return err
			}
			return e.startPlayoffs(tx, div, bracketSize(div, teams))
		case models.MatchStagePlayIn:
			return e.afterPlayIn(tx, div, div.MaxTeams)
		}

		if div.Stage.Kind == models.StageFinalScheduled || div.Stage.Kind == models.StageFinalComplete {
			div.Stage = models.StageOf(models.StageDivisionComplete)
			return nil
		}
		return e.nextRound(tx, div)
	})
}
