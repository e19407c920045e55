// Package standings ranks the teams of a division from its round robin results.
package standings

import (
	"sort"

	"piqle_tournament/models"
)

// HeadToHead is a team's record against one specific opponent.
type HeadToHead struct {
	Wins      int `json:"wins"`
	Losses    int `json:"losses"`
	PointDiff int `json:"point_diff"`
}

// Standing is a derived row of the round robin table.
type Standing struct {
	TeamID        uint                `json:"team_id"`
	TeamName      string              `json:"team_name"`
	Rank          int                 `json:"rank"`
	Wins          int                 `json:"wins"`
	Losses        int                 `json:"losses"`
	PointsFor     int                 `json:"points_for"`
	PointsAgainst int                 `json:"points_against"`
	PointDiff     int                 `json:"point_diff"`
	HeadToHead    map[uint]HeadToHead `json:"head_to_head"`
}

// Compute ranks teams 1..N from the ROUND_ROBIN matches among the given ones.
//
// Ordering: wins, then head-to-head point differential among the teams tied on
// wins, then overall point differential, then points for, then team id. A tied
// cluster is split by the differential each member accumulated against the
// other members; groups still tied after a split are resolved again among
// themselves. For two teams this is the plain pairwise head-to-head rule, and
// for cycles of three or more it gives a single consistent order instead of a
// comparator that disagrees with itself.
func Compute(teams []models.Team, matches []models.Match) []Standing {
	index := make(map[uint]*Standing, len(teams))
	for _, t := range teams {
		index[t.ID] = &Standing{
			TeamID:     t.ID,
			TeamName:   t.Name,
			HeadToHead: make(map[uint]HeadToHead),
		}
	}

	for _, m := range matches {
		if m.Stage != models.MatchStageRoundRobin || !m.HasResult() {
			continue
		}
		a := index[m.TeamAID]
		b := index[m.TeamBID]
		if a == nil || b == nil {
			continue
		}
		totalA, totalB := m.Totals()

		a.PointsFor += totalA
		a.PointsAgainst += totalB
		b.PointsFor += totalB
		b.PointsAgainst += totalA

		h2hA := a.HeadToHead[b.TeamID]
		h2hB := b.HeadToHead[a.TeamID]
		switch {
		case totalA > totalB:
			a.Wins++
			b.Losses++
			h2hA.Wins++
			h2hB.Losses++
		case totalB > totalA:
			b.Wins++
			a.Losses++
			h2hB.Wins++
			h2hA.Losses++
		}
		h2hA.PointDiff += totalA - totalB
		h2hB.PointDiff += totalB - totalA
		a.HeadToHead[b.TeamID] = h2hA
		b.HeadToHead[a.TeamID] = h2hB
	}

	table := make([]*Standing, 0, len(index))
	for _, s := range index {
		s.PointDiff = s.PointsFor - s.PointsAgainst
		table = append(table, s)
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].Wins != table[j].Wins {
			return table[i].Wins > table[j].Wins
		}
		return table[i].TeamID < table[j].TeamID
	})

	ordered := make([]*Standing, 0, len(table))
	for start := 0; start < len(table); {
		end := start + 1
		for end < len(table) && table[end].Wins == table[start].Wins {
			end++
		}
		ordered = append(ordered, resolve(table[start:end])...)
		start = end
	}

	result := make([]Standing, len(ordered))
	for i, s := range ordered {
		s.Rank = i + 1
		result[i] = *s
	}
	return result
}

// resolve orders a cluster of teams tied on wins.
func resolve(cluster []*Standing) []*Standing {
	if len(cluster) < 2 {
		return cluster
	}

	members := make(map[uint]bool, len(cluster))
	for _, s := range cluster {
		members[s.TeamID] = true
	}
	mini := make(map[uint]int, len(cluster))
	for _, s := range cluster {
		for opp, rec := range s.HeadToHead {
			if members[opp] {
				mini[s.TeamID] += rec.PointDiff
			}
		}
	}

	sorted := append([]*Standing(nil), cluster...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return mini[sorted[i].TeamID] > mini[sorted[j].TeamID]
	})

	var groups [][]*Standing
	for start := 0; start < len(sorted); {
		end := start + 1
		for end < len(sorted) && mini[sorted[end].TeamID] == mini[sorted[start].TeamID] {
			end++
		}
		groups = append(groups, sorted[start:end])
		start = end
	}

	if len(groups) == 1 {
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := sorted[i], sorted[j]
			if a.PointDiff != b.PointDiff {
				return a.PointDiff > b.PointDiff
			}
			if a.PointsFor != b.PointsFor {
				return a.PointsFor > b.PointsFor
			}
			return a.TeamID < b.TeamID
		})
		return sorted
	}

	out := make([]*Standing, 0, len(sorted))
	for _, g := range groups {
		out = append(out, resolve(g)...)
	}
	return out
}

// SeedMap returns team id -> rank.
func SeedMap(table []Standing) map[uint]int {
	seeds := make(map[uint]int, len(table))
	for _, s := range table {
		seeds[s.TeamID] = s.Rank
	}
	return seeds
}
