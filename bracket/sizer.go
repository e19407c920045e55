// Package bracket sizes the playoff field, pairs seeds and projects the
// single-elimination tree from persisted results.
package bracket

import "piqle_tournament/models"

// Sizes lists the bracket sizes a division can be played in.
var Sizes = []int{4, 8, 16, 32, 64}

// TargetBracketSize maps a team count to its bracket bucket.
func TargetBracketSize(teams int) int {
	switch {
	case teams <= 8:
		return 4
	case teams <= 16:
		return 8
	case teams <= 24:
		return 16
	case teams <= 32:
		return 32
	}
	return 64
}

// ValidSize reports whether b is one of Sizes.
func ValidSize(b int) bool {
	for _, s := range Sizes {
		if s == b {
			return true
		}
	}
	return false
}

// NeedsPlayIn reports whether a play-in round is required: B < N < 2B.
func NeedsPlayIn(teams, size int) bool {
	return size < teams && teams < 2*size
}

// PlayInExcess is E = N - B when a play-in is needed, 0 otherwise.
func PlayInExcess(teams, size int) int {
	if !NeedsPlayIn(teams, size) {
		return 0
	}
	return teams - size
}

// Plan describes how N teams are split between the play-in and the bracket.
type Plan struct {
	Teams         int `json:"teams"`
	BracketSize   int `json:"bracket_size"`
	PlayInMatches int `json:"play_in_matches"`
	PlayInTeams   int `json:"play_in_teams"`
	AutoQualified int `json:"auto_qualified"`
	Eliminated    int `json:"eliminated"` // dropped without playing, N >= 2B or MLP overflow
}

// NewPlan splits teams for the given bracket size. MLP divisions never play a
// play-in: the top B seeds go straight into the bracket.
func NewPlan(teams, size int, format models.Format) Plan {
	p := Plan{Teams: teams, BracketSize: size}
	if format != models.FormatMLP && NeedsPlayIn(teams, size) {
		e := teams - size
		p.PlayInMatches = e
		p.PlayInTeams = 2 * e
		p.AutoQualified = teams - 2*e
		return p
	}
	p.AutoQualified = teams
	if teams > size {
		p.AutoQualified = size
		p.Eliminated = teams - size
	}
	return p
}

// HasPlayIn reports whether the plan schedules play-in matches.
func (p Plan) HasPlayIn() bool {
	return p.PlayInMatches > 0
}

// FirstPlayInSeed is the best seed that has to go through the play-in.
func (p Plan) FirstPlayInSeed() int {
	return p.AutoQualified + 1
}

// Rounds returns ceil(log2(size)).
func Rounds(size int) int {
	r := 0
	for (1 << r) < size {
		r++
	}
	return r
}
