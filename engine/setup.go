package engine

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"piqle_tournament/apperr"
	"piqle_tournament/bracket"
	"piqle_tournament/models"
)

// DivisionInput creates a division.
type DivisionInput struct {
	Name           string        `json:"name" validate:"required,max=100"`
	Format         models.Format `json:"format" validate:"omitempty,oneof=STANDARD MLP"`
	TeamKind       string        `json:"team_kind" validate:"max=32"`
	MaxTeams       int           `json:"max_teams" validate:"omitempty,oneof=4 8 16 32 64"`
	SkipThirdPlace bool          `json:"skip_third_place"`
}

type PoolInput struct {
	Name string `json:"name" validate:"required,max=50"`
}

type PlayerInput struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
	Gender    string `json:"gender" validate:"required,oneof=F M"`
}

type TeamInput struct {
	Name    string        `json:"name" validate:"required,max=100"`
	PoolID  *uint         `json:"pool_id"`
	Players []PlayerInput `json:"players" validate:"dive"`
}

// beforeRoundRobin rejects roster changes once matches exist: MLP games are
// assigned from the rosters when they are created.
func beforeRoundRobin(div *models.Division) error {
	if div.Stage.Kind != models.StageNone {
		return apperr.State("teams and pools are fixed once round robin is generated (stage %s)", div.Stage)
	}
	return nil
}

// CreateDivision stores an empty division, ready for teams.
func (e *Engine) CreateDivision(ctx context.Context, in DivisionInput) (*models.Division, error) {
	if in.Name == "" {
		return nil, apperr.Validation("division name is required")
	}
	if in.MaxTeams != 0 && !bracket.ValidSize(in.MaxTeams) {
		return nil, apperr.Validation("max teams %d is not one of %v", in.MaxTeams, bracket.Sizes)
	}
	format := in.Format
	if format == "" {
		format = models.FormatStandard
	}
	if format != models.FormatStandard && format != models.FormatMLP {
		return nil, apperr.Validation("unknown format %q", format)
	}

	div := models.Division{
		Name:           in.Name,
		Format:         format,
		TeamKind:       in.TeamKind,
		MaxTeams:       in.MaxTeams,
		SkipThirdPlace: in.SkipThirdPlace,
	}
	if err := e.db.WithContext(ctx).Create(&div).Error; err != nil {
		return nil, err
	}
	e.log.WithField("division_id", div.ID).WithField("format", div.Format).Info("division created")
	return &div, nil
}

// AddPool appends a round robin pool to the division.
func (e *Engine) AddPool(ctx context.Context, divisionID uint, in PoolInput) (*models.Pool, error) {
	var pool models.Pool
	_, err := e.mutate(ctx, divisionID, "add_pool", func(tx *gorm.DB, div *models.Division) error {
		if err := beforeRoundRobin(div); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Pool{}).Where("division_id = ?", div.ID).Count(&count).Error; err != nil {
			return err
		}
		pool = models.Pool{DivisionID: div.ID, Name: in.Name, Order: int(count)}
		if err := tx.Create(&pool).Error; err != nil {
			return err
		}
		return tx.Model(&models.Division{}).Where("id = ?", div.ID).Update("pool_count", count+1).Error
	})
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

func checkRoster(div *models.Division, players []PlayerInput) error {
	if !div.IsMLP() {
		return nil
	}
	var f, m int
	for _, p := range players {
		switch p.Gender {
		case models.GenderFemale:
			f++
		case models.GenderMale:
			m++
		}
	}
	if f > 2 || m > 2 {
		return apperr.Validation("an MLP roster holds at most 2 female and 2 male players")
	}
	return nil
}

// AddTeam registers a team, optionally with its players and pool.
func (e *Engine) AddTeam(ctx context.Context, divisionID uint, in TeamInput) (*models.Team, error) {
	var team models.Team
	_, err := e.mutate(ctx, divisionID, "add_team", func(tx *gorm.DB, div *models.Division) error {
		if err := beforeRoundRobin(div); err != nil {
			return err
		}
		if err := checkRoster(div, in.Players); err != nil {
			return err
		}
		if in.PoolID != nil {
			var pool models.Pool
			if err := tx.Where("id = ? AND division_id = ?", *in.PoolID, div.ID).First(&pool).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.Validation("pool %d does not belong to division %d", *in.PoolID, div.ID)
				}
				return err
			}
		}

		team = models.Team{DivisionID: div.ID, Name: in.Name, PoolID: in.PoolID}
		for _, p := range in.Players {
			team.Players = append(team.Players, models.Player{FirstName: p.FirstName, LastName: p.LastName, Gender: p.Gender})
		}
		return tx.Create(&team).Error
	})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// RemoveTeam deletes a team and its roster before round robin is generated.
func (e *Engine) RemoveTeam(ctx context.Context, divisionID, teamID uint) error {
	_, err := e.mutate(ctx, divisionID, "remove_team", func(tx *gorm.DB, div *models.Division) error {
		if err := beforeRoundRobin(div); err != nil {
			return err
		}
		res := tx.Unscoped().Where("id = ? AND division_id = ?", teamID, div.ID).Delete(&models.Team{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("team", teamID)
		}
		return tx.Unscoped().Where("team_id = ?", teamID).Delete(&models.Player{}).Error
	})
	return err
}

// AddPlayer adds one player to a team's roster.
func (e *Engine) AddPlayer(ctx context.Context, teamID uint, in PlayerInput) (*models.Player, error) {
	var team models.Team
	if err := e.db.WithContext(ctx).First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("team", teamID)
		}
		return nil, err
	}

	var player models.Player
	_, err := e.mutate(ctx, team.DivisionID, "add_player", func(tx *gorm.DB, div *models.Division) error {
		if err := beforeRoundRobin(div); err != nil {
			return err
		}
		// The team may have been removed since it was looked up.
		if err := tx.Where("id = ? AND division_id = ?", teamID, div.ID).First(&models.Team{}).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("team", teamID)
			}
			return err
		}
		var existing []models.Player
		if err := tx.Where("team_id = ?", teamID).Find(&existing).Error; err != nil {
			return err
		}
		roster := make([]PlayerInput, 0, len(existing)+1)
		for _, p := range existing {
			roster = append(roster, PlayerInput{Gender: p.Gender})
		}
		if err := checkRoster(div, append(roster, in)); err != nil {
			return err
		}
		player = models.Player{TeamID: teamID, FirstName: in.FirstName, LastName: in.LastName, Gender: in.Gender}
		return tx.Create(&player).Error
	})
	if err != nil {
		return nil, err
	}
	return &player, nil
}
