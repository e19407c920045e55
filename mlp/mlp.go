// Package mlp resolves match outcomes: the 4 game mixed MLP format with its
// tiebreaker, and plain aggregate scoring for every other match.
package mlp

import (
	"sort"

	"piqle_tournament/apperr"
	"piqle_tournament/models"
)

// GameOrder is the fixed order of the games of an MLP match.
var GameOrder = []models.GameType{models.GameWomen, models.GameMen, models.GameMixed1, models.GameMixed2}

// WinsNeeded is the number of games that decides an MLP match.
const WinsNeeded = 3

// Roster is a team's players split by gender, in creation order.
type Roster struct {
	Females []models.Player
	Males   []models.Player
}

// SplitRoster checks the team has exactly 2 women and 2 men.
func SplitRoster(team models.Team) (Roster, error) {
	players := append([]models.Player(nil), team.Players...)
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	var r Roster
	for _, p := range players {
		switch p.Gender {
		case models.GenderFemale:
			r.Females = append(r.Females, p)
		case models.GenderMale:
			r.Males = append(r.Males, p)
		}
	}
	if len(r.Females) != 2 || len(r.Males) != 2 {
		return Roster{}, &apperr.RosterError{TeamID: team.ID, Females: len(r.Females), Males: len(r.Males)}
	}
	return r, nil
}

// AssignGames builds the 4 unscored games of a match between a and b.
// WOMEN and MEN use both players of that gender, MIXED_1 pairs the first man
// and woman of each roster, MIXED_2 the second.
func AssignGames(a, b models.Team) ([]models.Game, error) {
	ra, err := SplitRoster(a)
	if err != nil {
		return nil, err
	}
	rb, err := SplitRoster(b)
	if err != nil {
		return nil, err
	}

	pairs := map[models.GameType][2][2]uint{
		models.GameWomen:  {{ra.Females[0].ID, ra.Females[1].ID}, {rb.Females[0].ID, rb.Females[1].ID}},
		models.GameMen:    {{ra.Males[0].ID, ra.Males[1].ID}, {rb.Males[0].ID, rb.Males[1].ID}},
		models.GameMixed1: {{ra.Males[0].ID, ra.Females[0].ID}, {rb.Males[0].ID, rb.Females[0].ID}},
		models.GameMixed2: {{ra.Males[1].ID, ra.Females[1].ID}, {rb.Males[1].ID, rb.Females[1].ID}},
	}

	games := make([]models.Game, len(GameOrder))
	for i, gt := range GameOrder {
		gt := gt
		p := pairs[gt]
		games[i] = models.Game{
			Index:          i,
			GameType:       &gt,
			TeamAPlayer1ID: uintPtr(p[0][0]),
			TeamAPlayer2ID: uintPtr(p[0][1]),
			TeamBPlayer1ID: uintPtr(p[1][0]),
			TeamBPlayer2ID: uintPtr(p[1][1]),
		}
	}
	return games, nil
}

func uintPtr(v uint) *uint { return &v }

// Outcome is the resolved state of a match.
type Outcome struct {
	Winner          *models.Side `json:"winner"`
	WinnerTeamID    uint         `json:"winner_team_id,omitempty"`
	WinsA           int          `json:"wins_a"`
	WinsB           int          `json:"wins_b"`
	PointsA         int          `json:"points_a"`
	PointsB         int          `json:"points_b"`
	NeedsTiebreaker bool         `json:"needs_tiebreaker"`
	Tied            bool         `json:"tied"` // aggregate is level, another game is needed
}

// Decided reports whether the match has a winner.
func (o Outcome) Decided() bool {
	return o.Winner != nil
}

func (o *Outcome) win(m *models.Match, s models.Side) {
	o.Winner = &s
	o.WinnerTeamID = m.TeamAID
	if s == models.SideB {
		o.WinnerTeamID = m.TeamBID
	}
}

// Resolve picks the rule for the division's format.
func Resolve(m *models.Match, format models.Format) Outcome {
	if format == models.FormatMLP {
		return ResolveMLP(m)
	}
	return ResolveAggregate(m)
}

// ResolveMLP decides a 4 game match. The match is only decided once all 4
// games are decided and one side has 3 of them; a 2-2 split needs a
// tiebreaker, and a recorded tiebreaker overrides the games.
func ResolveMLP(m *models.Match) Outcome {
	var o Outcome
	decided := 0
	for i := range m.Games {
		g := &m.Games[i]
		if g.Index < 0 || g.Index >= len(GameOrder) {
			continue
		}
		if g.Recorded() {
			o.PointsA += *g.ScoreA
			o.PointsB += *g.ScoreB
		}
		w := g.WinnerSide()
		if w == nil {
			continue
		}
		decided++
		if *w == models.SideA {
			o.WinsA++
		} else {
			o.WinsB++
		}
	}

	if tb := m.Tiebreaker; tb != nil && tb.WinnerTeamID != 0 {
		switch tb.WinnerTeamID {
		case m.TeamAID:
			o.win(m, models.SideA)
		case m.TeamBID:
			o.win(m, models.SideB)
		}
		return o
	}

	if decided < len(GameOrder) {
		return o
	}
	switch {
	case o.WinsA >= WinsNeeded:
		o.win(m, models.SideA)
	case o.WinsB >= WinsNeeded:
		o.win(m, models.SideB)
	default:
		o.NeedsTiebreaker = true
	}
	return o
}

// ResolveAggregate decides a match from the summed scores of its recorded
// games. Normally that is a single game; extra games are only entered to
// break a level aggregate, which is never resolved automatically.
func ResolveAggregate(m *models.Match) Outcome {
	var o Outcome
	recorded := 0
	for i := range m.Games {
		g := &m.Games[i]
		if !g.Recorded() {
			continue
		}
		recorded++
		o.PointsA += *g.ScoreA
		o.PointsB += *g.ScoreB
		if w := g.WinnerSide(); w != nil {
			if *w == models.SideA {
				o.WinsA++
			} else {
				o.WinsB++
			}
		}
	}
	switch {
	case recorded == 0:
	case o.PointsA > o.PointsB:
		o.win(m, models.SideA)
	case o.PointsB > o.PointsA:
		o.win(m, models.SideB)
	default:
		o.Tied = true
	}
	return o
}

// TiebreakerWinner returns the team that won a tiebreaker with the given scores.
func TiebreakerWinner(m *models.Match, scoreA, scoreB int) (uint, error) {
	if scoreA < 0 || scoreB < 0 {
		return 0, apperr.Validation("tiebreaker scores must be non-negative")
	}
	if scoreA == scoreB {
		return 0, apperr.Validation("tiebreaker cannot end level")
	}
	if scoreA > scoreB {
		return m.TeamAID, nil
	}
	return m.TeamBID, nil
}
