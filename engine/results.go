package engine

import (
	"context"

	"gorm.io/gorm"

	"piqle_tournament/apperr"
	"piqle_tournament/mlp"
	"piqle_tournament/models"
)

// matchDivision resolves the division a match belongs to, outside any transaction.
func (e *Engine) matchDivision(ctx context.Context, matchID uint) (uint, error) {
	m, err := loadMatch(e.db.WithContext(ctx), matchID)
	if err != nil {
		return 0, err
	}
	return m.DivisionID, nil
}

// editable loads a match and checks it belongs to the stage group currently
// being played and is not frozen.
func editable(tx *gorm.DB, div *models.Division, matchID uint) (*models.Match, error) {
	m, err := loadMatch(tx, matchID)
	if err != nil {
		return nil, err
	}
	if m.DivisionID != div.ID {
		return nil, apperr.NotFound("match", matchID)
	}
	if m.Locked {
		return nil, apperr.State("match %d is locked", m.ID)
	}
	group, err := currentGroup(tx, div)
	if err != nil {
		return nil, err
	}
	for _, g := range group {
		if g.ID == m.ID {
			return m, nil
		}
	}
	return nil, apperr.State("match %d is not part of the current stage %s", m.ID, div.Stage)
}

// markComplete flips the stage to its _COMPLETE form once every match of the
// group is played. It never schedules anything.
func markComplete(tx *gorm.DB, div *models.Division) error {
	if div.Stage.IsComplete() {
		return nil
	}
	group, err := currentGroup(tx, div)
	if err != nil {
		return err
	}
	if len(group) > 0 && pendingCount(group, div.Format) == 0 {
		div.Stage = div.Stage.Completed()
	}
	return nil
}

// UpdateMatchResult stores the score of one game and completes the stage when
// it was the last result missing.
func (e *Engine) UpdateMatchResult(ctx context.Context, in ScoreInput) (*models.Match, error) {
	if in.ScoreA < 0 || in.ScoreB < 0 {
		return nil, apperr.Validation("scores must be non-negative")
	}
	divisionID, err := e.matchDivision(ctx, in.MatchID)
	if err != nil {
		return nil, err
	}

	var out *models.Match
	_, err = e.mutate(ctx, divisionID, "update_match_result", func(tx *gorm.DB, div *models.Division) error {
		m, err := editable(tx, div, in.MatchID)
		if err != nil {
			return err
		}
		if err := upsertGame(tx, div, m, in); err != nil {
			return err
		}
		if err := markComplete(tx, div); err != nil {
			return err
		}
		out, err = loadMatch(tx, m.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func upsertGame(tx *gorm.DB, div *models.Division, m *models.Match, in ScoreInput) error {
	if div.IsMLP() {
		if in.GameIndex < 0 || in.GameIndex >= len(mlp.GameOrder) {
			return apperr.Validation("MLP game index must be between 0 and %d", len(mlp.GameOrder)-1)
		}
	} else if in.GameIndex < 0 || in.GameIndex > len(m.Games) {
		return apperr.Validation("game index %d is out of range, next game is %d", in.GameIndex, len(m.Games))
	}

	scoreA, scoreB := in.ScoreA, in.ScoreB
	for i := range m.Games {
		g := &m.Games[i]
		if g.Index != in.GameIndex {
			continue
		}
		g.ScoreA, g.ScoreB = &scoreA, &scoreB
		g.Winner = g.WinnerSide()
		return tx.Model(g).Select("score_a", "score_b", "winner").Updates(g).Error
	}

	g := models.Game{MatchID: m.ID, Index: in.GameIndex, ScoreA: &scoreA, ScoreB: &scoreB}
	if div.IsMLP() {
		gt := mlp.GameOrder[in.GameIndex]
		g.GameType = &gt
	}
	g.Winner = g.WinnerSide()
	return tx.Create(&g).Error
}

// SaveTiebreaker records the decider of an MLP match tied 2-2 on games. The
// tiebreaker's winner becomes the match winner.
func (e *Engine) SaveTiebreaker(ctx context.Context, in TiebreakerInput) (*models.Match, error) {
	divisionID, err := e.matchDivision(ctx, in.MatchID)
	if err != nil {
		return nil, err
	}

	var out *models.Match
	_, err = e.mutate(ctx, divisionID, "save_tiebreaker", func(tx *gorm.DB, div *models.Division) error {
		if !div.IsMLP() {
			return apperr.Validation("tiebreakers only apply to MLP divisions")
		}
		m, err := editable(tx, div, in.MatchID)
		if err != nil {
			return err
		}
		games := *m
		games.Tiebreaker = nil
		if !mlp.ResolveMLP(&games).NeedsTiebreaker {
			return apperr.State("match %d is not tied 2-2 on games", m.ID)
		}
		winner, err := mlp.TiebreakerWinner(m, in.TeamAScore, in.TeamBScore)
		if err != nil {
			return err
		}

		tb := models.Tiebreaker{
			MatchID:      m.ID,
			TeamAScore:   in.TeamAScore,
			TeamBScore:   in.TeamBScore,
			WinnerTeamID: winner,
			Sequence:     in.Sequence,
		}
		if m.Tiebreaker != nil {
			tb.ID = m.Tiebreaker.ID
			tb.CreatedAt = m.Tiebreaker.CreatedAt
		}
		if err := tx.Save(&tb).Error; err != nil {
			return err
		}
		if err := markComplete(tx, div); err != nil {
			return err
		}
		out, err = loadMatch(tx, m.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LockMatch freezes a match; only regeneration clears it.
func (e *Engine) LockMatch(ctx context.Context, matchID uint) (*models.Match, error) {
	return e.setLocked(ctx, matchID, true)
}

// UnlockMatch lifts a lock set by LockMatch.
func (e *Engine) UnlockMatch(ctx context.Context, matchID uint) (*models.Match, error) {
	return e.setLocked(ctx, matchID, false)
}

func (e *Engine) setLocked(ctx context.Context, matchID uint, locked bool) (*models.Match, error) {
	divisionID, err := e.matchDivision(ctx, matchID)
	if err != nil {
		return nil, err
	}
	var out *models.Match
	op := "unlock_match"
	if locked {
		op = "lock_match"
	}
	_, err = e.mutate(ctx, divisionID, op, func(tx *gorm.DB, div *models.Division) error {
		if err := tx.Model(&models.Match{}).Where("id = ?", matchID).Update("locked", locked).Error; err != nil {
			return err
		}
		var err error
		out, err = loadMatch(tx, matchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SwapTeams re-pairs matches of the current stage group by hand. The group
// must not have any result or lock, and the swaps may only move teams around
// inside the group.
func (e *Engine) SwapTeams(ctx context.Context, divisionID uint, swaps []Swap) (*models.Division, error) {
	return e.mutate(ctx, divisionID, "swap_teams", func(tx *gorm.DB, div *models.Division) error {
		if len(swaps) == 0 {
			return apperr.Validation("no swaps given")
		}
		group, err := currentGroup(tx, div)
		if err != nil {
			return err
		}
		if len(group) == 0 {
			return apperr.State("no matches scheduled in stage %s", div.Stage)
		}
		before := make(map[uint]int)
		byID := make(map[uint]*models.Match, len(group))
		for i := range group {
			m := &group[i]
			if m.HasResult() {
				return apperr.State("match %d already has a result, pairings are frozen", m.ID)
			}
			if m.Locked {
				return apperr.State("match %d is locked", m.ID)
			}
			before[m.TeamAID]++
			before[m.TeamBID]++
			byID[m.ID] = m
		}

		changed := make(map[uint]bool)
		for _, s := range swaps {
			m, ok := byID[s.MatchID]
			if !ok {
				return apperr.Validation("match %d is not part of the current stage", s.MatchID)
			}
			if s.TeamAID == s.TeamBID {
				return apperr.Validation("match %d cannot pair team %d with itself", s.MatchID, s.TeamAID)
			}
			m.TeamAID, m.TeamBID = s.TeamAID, s.TeamBID
			changed[m.ID] = true
		}

		after := make(map[uint]int)
		for _, m := range group {
			after[m.TeamAID]++
			after[m.TeamBID]++
		}
		if len(after) != len(before) {
			return apperr.Validation("swaps must keep the same teams in the stage")
		}
		for id, n := range before {
			if after[id] != n {
				return apperr.Validation("swaps must keep the same teams in the stage, team %d appears %d times instead of %d", id, after[id], n)
			}
		}

		teams, err := loadTeams(tx, div.ID)
		if err != nil {
			return err
		}
		idx := teamIndex(teams)
		for id := range changed {
			m := byID[id]
			if err := tx.Model(&models.Match{}).Where("id = ?", id).
				Updates(map[string]interface{}{"team_a_id": m.TeamAID, "team_b_id": m.TeamBID}).Error; err != nil {
				return err
			}
			if !div.IsMLP() {
				continue
			}
			// player assignments follow the new teams
			if err := tx.Unscoped().Where("match_id = ?", id).Delete(&models.Game{}).Error; err != nil {
				return err
			}
			games, err := mlp.AssignGames(idx[m.TeamAID], idx[m.TeamBID])
			if err != nil {
				return err
			}
			for i := range games {
				games[i].MatchID = id
			}
			if err := tx.Create(&games).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
