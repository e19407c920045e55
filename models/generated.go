package models

// GeneratedMatch is a match produced by a stage generator before it is persisted.
// Each stage has its own variant so stage-only fields cannot leak onto other stages.
type GeneratedMatch interface {
	Row(divisionID uint) Match
}

// RoundRobinMatch is a pool pairing.
type RoundRobinMatch struct {
	TeamAID    uint
	TeamBID    uint
	RoundIndex int
	PoolID     *uint
}

func (m RoundRobinMatch) Row(divisionID uint) Match {
	return Match{
		DivisionID: divisionID,
		PoolID:     m.PoolID,
		TeamAID:    m.TeamAID,
		TeamBID:    m.TeamBID,
		RoundIndex: m.RoundIndex,
		Stage:      MatchStageRoundRobin,
	}
}

// PlayInMatch pairs two lower seeds; Position is the play-in slot it occupies.
type PlayInMatch struct {
	TeamAID  uint
	TeamBID  uint
	Position int
}

func (m PlayInMatch) Row(divisionID uint) Match {
	return Match{
		DivisionID: divisionID,
		TeamAID:    m.TeamAID,
		TeamBID:    m.TeamBID,
		Position:   m.Position,
		Stage:      MatchStagePlayIn,
	}
}

// EliminationMatch is a playoff pairing at a bracket position.
type EliminationMatch struct {
	TeamAID    uint
	TeamBID    uint
	RoundIndex int
	Position   int
	ThirdPlace bool
}

func (m EliminationMatch) Row(divisionID uint) Match {
	row := Match{
		DivisionID: divisionID,
		TeamAID:    m.TeamAID,
		TeamBID:    m.TeamBID,
		RoundIndex: m.RoundIndex,
		Position:   m.Position,
		Stage:      MatchStageElimination,
	}
	if m.ThirdPlace {
		row.Note = ThirdPlaceNote
	}
	return row
}
