package engine

import (
	"context"

	"gorm.io/gorm"

	"piqle_tournament/bracket"
	"piqle_tournament/standings"
)

// snapshot runs a read in one transaction so it sees a single committed state
// of the division. Postgres needs repeatable read for that; sqlite transactions
// are serializable already.
func (e *Engine) snapshot(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SET TRANSACTION ISOLATION LEVEL REPEATABLE READ").Error; err != nil {
				return err
			}
		}
		return fn(tx)
	})
}

// ComputeStandings ranks the division's teams from its round robin results.
func (e *Engine) ComputeStandings(ctx context.Context, divisionID uint) ([]standings.Standing, error) {
	var table []standings.Standing
	err := e.snapshot(ctx, func(tx *gorm.DB) error {
		if _, err := loadDivision(tx, divisionID); err != nil {
			return err
		}
		var err error
		_, table, err = ranked(tx, divisionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// BracketView is the projected playoff with the plan it was built from.
type BracketView struct {
	Plan bracket.Plan  `json:"plan"`
	Tree *bracket.Tree `json:"tree"`
}

// GetBracketView projects the bracket from the current standings and the
// persisted play-in and elimination matches. Before the playoffs start it is
// a preview of the pairings the current standings would produce.
func (e *Engine) GetBracketView(ctx context.Context, divisionID uint) (*BracketView, error) {
	var view BracketView
	err := e.snapshot(ctx, func(tx *gorm.DB) error {
		div, err := loadDivision(tx, divisionID)
		if err != nil {
			return err
		}
		teams, err := teamCount(tx, divisionID)
		if err != nil {
			return err
		}
		size := bracketSize(div, teams)
		tree, err := playoffTree(tx, div, size)
		if err != nil {
			return err
		}
		view = BracketView{
			Plan: bracket.NewPlan(teams, size, div.Format),
			Tree: tree,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}
