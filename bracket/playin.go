package bracket

import "piqle_tournament/models"

// Entrant is a team placed in the bracket. Seed is the number shown next to
// it; play-in winners keep their original seed.
type Entrant struct {
	TeamID uint   `json:"team_id"`
	Name   string `json:"team_name"`
	Seed   int    `json:"seed"`
}

// PlayInPair is play-in match Position between two lower seeds. Its winner
// occupies bracket seed slot Slot in round 1.
type PlayInPair struct {
	Position int
	A        Entrant
	B        Entrant
	Slot     int
}

// Match returns the row to persist for the pair.
func (p PlayInPair) Match() models.PlayInMatch {
	return models.PlayInMatch{TeamAID: p.A.TeamID, TeamBID: p.B.TeamID, Position: p.Position}
}

// PlayInPairs pairs the bottom 2E seeds of ranked, best against worst:
// lower[i] plays lower[last-i]. ranked must be ordered by seed, 1 first.
func PlayInPairs(ranked []Entrant, size int) []PlayInPair {
	n := len(ranked)
	e := PlayInExcess(n, size)
	if e == 0 {
		return nil
	}
	lower := ranked[n-2*e:]
	pairs := make([]PlayInPair, e)
	for i := 0; i < e; i++ {
		pairs[i] = PlayInPair{
			Position: i,
			A:        lower[i],
			B:        lower[len(lower)-1-i],
			Slot:     n - 2*e + 1 + i,
		}
	}
	return pairs
}

// Split divides a ranked field into the teams that go straight into the
// bracket and the play-in pairs, following plan.
func Split(ranked []Entrant, plan Plan) (qualified []Entrant, playIn []PlayInPair) {
	if plan.HasPlayIn() {
		return ranked[:plan.AutoQualified], PlayInPairs(ranked, plan.BracketSize)
	}
	n := plan.AutoQualified
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n], nil
}
