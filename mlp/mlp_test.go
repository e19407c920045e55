package mlp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"piqle_tournament/apperr"
	"piqle_tournament/models"
)

func scored(index, a, b int) models.Game {
	return models.Game{Index: index, ScoreA: &a, ScoreB: &b}
}

func match(games ...models.Game) *models.Match {
	return &models.Match{TeamAID: 1, TeamBID: 2, Games: games}
}

func TestResolveMLP(t *testing.T) {
	tests := []struct {
		name            string
		games           []models.Game
		winner          uint
		winsA, winsB    int
		needsTiebreaker bool
	}{
		{
			name:   "three games to one",
			games:  []models.Game{scored(0, 11, 5), scored(1, 5, 11), scored(2, 11, 9), scored(3, 11, 6)},
			winner: 1, winsA: 3, winsB: 1,
		},
		{
			name:   "clean sweep for B",
			games:  []models.Game{scored(0, 3, 11), scored(1, 5, 11), scored(2, 9, 11), scored(3, 6, 11)},
			winner: 2, winsA: 0, winsB: 4,
		},
		{
			name:            "two all",
			games:           []models.Game{scored(0, 11, 5), scored(1, 5, 11), scored(2, 11, 9), scored(3, 6, 11)},
			winsA:           2,
			winsB:           2,
			needsTiebreaker: true,
		},
		{
			name:  "three up with one to play",
			games: []models.Game{scored(0, 11, 5), scored(1, 11, 7), scored(2, 11, 9), {Index: 3}},
			winsA: 3,
		},
		{
			name:  "level game is not decided",
			games: []models.Game{scored(0, 11, 5), scored(1, 11, 7), scored(2, 11, 9), scored(3, 10, 10)},
			winsA: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := ResolveMLP(match(tt.games...))
			assert.Equal(t, tt.winner, o.WinnerTeamID)
			assert.Equal(t, tt.winner != 0, o.Decided())
			assert.Equal(t, tt.winsA, o.WinsA)
			assert.Equal(t, tt.winsB, o.WinsB)
			assert.Equal(t, tt.needsTiebreaker, o.NeedsTiebreaker)
		})
	}
}

func TestResolveMLPAlternatingGames(t *testing.T) {
	// 11-5 A, 5-11 B, 11-9 A, 6-11 B: two games each, no winner until a tiebreaker.
	o := ResolveMLP(match(scored(0, 11, 5), scored(1, 5, 11), scored(2, 11, 9), scored(3, 6, 11)))
	assert.True(t, o.NeedsTiebreaker)
	assert.Nil(t, o.Winner)
}

func TestTiebreakerOverridesGames(t *testing.T) {
	m := match(scored(0, 11, 5), scored(1, 5, 11), scored(2, 11, 9), scored(3, 6, 11))
	m.Tiebreaker = &models.Tiebreaker{TeamAScore: 3, TeamBScore: 5, WinnerTeamID: 2}

	o := ResolveMLP(m)
	require.True(t, o.Decided())
	assert.Equal(t, models.SideB, *o.Winner)
	assert.Equal(t, uint(2), o.WinnerTeamID)
	assert.False(t, o.NeedsTiebreaker)
}

func TestResolveAggregate(t *testing.T) {
	o := ResolveAggregate(match(scored(0, 11, 7)))
	assert.Equal(t, uint(1), o.WinnerTeamID)

	o = ResolveAggregate(match(scored(0, 10, 10)))
	assert.False(t, o.Decided())
	assert.True(t, o.Tied)

	o = ResolveAggregate(match(scored(0, 10, 10), scored(1, 4, 11)))
	assert.Equal(t, uint(2), o.WinnerTeamID)

	o = ResolveAggregate(match(models.Game{Index: 0}))
	assert.False(t, o.Decided())
	assert.False(t, o.Tied)

	assert.Equal(t, uint(1), Resolve(match(scored(0, 11, 2)), models.FormatStandard).WinnerTeamID)
	assert.False(t, Resolve(match(scored(0, 11, 2)), models.FormatMLP).Decided())
}

func player(id uint, gender string) models.Player {
	return models.Player{Model: gorm.Model{ID: id}, Gender: gender}
}

func TestAssignGames(t *testing.T) {
	a := models.Team{Model: gorm.Model{ID: 1}, Players: []models.Player{
		player(12, models.GenderMale), player(10, models.GenderFemale), player(11, models.GenderFemale), player(13, models.GenderMale),
	}}
	b := models.Team{Model: gorm.Model{ID: 2}, Players: []models.Player{
		player(20, models.GenderFemale), player(21, models.GenderMale), player(22, models.GenderFemale), player(23, models.GenderMale),
	}}

	games, err := AssignGames(a, b)
	require.NoError(t, err)
	require.Len(t, games, 4)

	for i, g := range games {
		assert.Equal(t, i, g.Index)
		assert.Equal(t, GameOrder[i], *g.GameType)
		assert.False(t, g.Recorded())
	}
	women, men, mixed1, mixed2 := games[0], games[1], games[2], games[3]
	assert.Equal(t, uint(10), *women.TeamAPlayer1ID)
	assert.Equal(t, uint(11), *women.TeamAPlayer2ID)
	assert.Equal(t, uint(20), *women.TeamBPlayer1ID)
	assert.Equal(t, uint(22), *women.TeamBPlayer2ID)
	assert.Equal(t, uint(12), *men.TeamAPlayer1ID)
	assert.Equal(t, uint(23), *men.TeamBPlayer2ID)
	assert.Equal(t, uint(12), *mixed1.TeamAPlayer1ID)
	assert.Equal(t, uint(10), *mixed1.TeamAPlayer2ID)
	assert.Equal(t, uint(23), *mixed2.TeamBPlayer1ID)
	assert.Equal(t, uint(22), *mixed2.TeamBPlayer2ID)
}

func TestAssignGamesRejectsRoster(t *testing.T) {
	a := models.Team{Model: gorm.Model{ID: 1}, Players: []models.Player{
		player(1, models.GenderFemale), player(2, models.GenderMale), player(3, models.GenderMale), player(4, models.GenderMale),
	}}
	b := models.Team{Model: gorm.Model{ID: 2}}

	_, err := AssignGames(a, b)
	var roster *apperr.RosterError
	require.True(t, errors.As(err, &roster))
	assert.Equal(t, uint(1), roster.TeamID)
	assert.Equal(t, 1, roster.Females)
	assert.Equal(t, 3, roster.Males)

	var ve *apperr.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestTiebreakerWinner(t *testing.T) {
	m := match()
	w, err := TiebreakerWinner(m, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, uint(1), w)

	_, err = TiebreakerWinner(m, 4, 4)
	assert.Error(t, err)
	_, err = TiebreakerWinner(m, -1, 4)
	assert.Error(t, err)
}
