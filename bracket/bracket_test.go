package bracket

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piqle_tournament/models"
)

func TestTargetBracketSize(t *testing.T) {
	tests := []struct {
		teams int
		want  int
	}{
		{2, 4}, {8, 4}, {9, 8}, {16, 8}, {17, 16}, {24, 16}, {25, 32}, {32, 32}, {33, 64}, {100, 64},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d teams", tt.teams), func(t *testing.T) {
			assert.Equal(t, tt.want, TargetBracketSize(tt.teams))
		})
	}
}

func TestPlayInCounts(t *testing.T) {
	for _, b := range Sizes {
		assert.False(t, NeedsPlayIn(b, b))
		assert.False(t, NeedsPlayIn(2*b, b))
		for n := b + 1; n < 2*b; n++ {
			p := NewPlan(n, b, models.FormatStandard)
			e := n - b
			require.True(t, p.HasPlayIn(), "n=%d b=%d", n, b)
			assert.Equal(t, e, p.PlayInMatches)
			assert.Equal(t, 2*e, p.PlayInTeams)
			assert.Equal(t, n-2*e, p.AutoQualified)
			assert.Equal(t, b, p.AutoQualified+p.PlayInMatches, "bracket is filled exactly")
			assert.Zero(t, p.Eliminated)
		}
	}
}

func TestPlanWithoutPlayIn(t *testing.T) {
	mlp := NewPlan(10, 8, models.FormatMLP)
	assert.False(t, mlp.HasPlayIn())
	assert.Equal(t, 8, mlp.AutoQualified)
	assert.Equal(t, 2, mlp.Eliminated)

	wide := NewPlan(20, 8, models.FormatStandard)
	assert.False(t, wide.HasPlayIn())
	assert.Equal(t, 8, wide.AutoQualified)
	assert.Equal(t, 12, wide.Eliminated)

	exact := NewPlan(8, 8, models.FormatStandard)
	assert.Equal(t, 8, exact.AutoQualified)
	assert.Zero(t, exact.Eliminated)
}

func TestBracketPairsReferenceTables(t *testing.T) {
	tests := map[int][][2]int{
		2: {{1, 2}},
		4: {{1, 4}, {2, 3}},
		8: {{1, 8}, {4, 5}, {2, 7}, {3, 6}},
		16: {{1, 16}, {8, 9}, {4, 13}, {5, 12}, {2, 15}, {7, 10}, {3, 14}, {6, 11}},
		32: {
			{1, 32}, {16, 17}, {8, 25}, {9, 24}, {4, 29}, {13, 20}, {5, 28}, {12, 21},
			{2, 31}, {15, 18}, {7, 26}, {10, 23}, {3, 30}, {14, 19}, {6, 27}, {11, 22},
		},
	}
	for size, want := range tests {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			got := BracketPairs(size)
			assert.Equal(t, want, got)

			seen := map[int]int{}
			for _, p := range got {
				seen[p[0]]++
				seen[p[1]]++
			}
			assert.Len(t, seen, size)
			for seed := 1; seed <= size; seed++ {
				assert.Equal(t, 1, seen[seed], "seed %d", seed)
			}
		})
	}
}

func TestBracketPairsEveryBucket(t *testing.T) {
	for _, size := range Sizes {
		pairs := BracketPairs(size)
		assert.Len(t, pairs, size/2)
		for _, p := range pairs {
			assert.Equal(t, size+1, p[0]+p[1], "seeds mirror around the bracket")
		}
	}
	assert.Nil(t, BracketPairs(1))
	assert.Len(t, BracketPairs(6), 4, "non power of two sizes pad with byes")
}

func field(n int) []Entrant {
	out := make([]Entrant, n)
	for i := range out {
		seed := i + 1
		out[i] = Entrant{TeamID: uint(100 + seed), Name: fmt.Sprintf("Team %d", seed), Seed: seed}
	}
	return out
}

func TestPlayInPairs(t *testing.T) {
	pairs := PlayInPairs(field(10), 8)
	require.Len(t, pairs, 2)

	assert.Equal(t, 7, pairs[0].A.Seed)
	assert.Equal(t, 10, pairs[0].B.Seed)
	assert.Equal(t, 7, pairs[0].Slot)
	assert.Equal(t, 8, pairs[1].A.Seed)
	assert.Equal(t, 9, pairs[1].B.Seed)
	assert.Equal(t, 8, pairs[1].Slot)

	assert.Equal(t, models.PlayInMatch{TeamAID: 108, TeamBID: 109, Position: 1}, pairs[1].Match())
	assert.Nil(t, PlayInPairs(field(8), 8))
	assert.Nil(t, PlayInPairs(field(16), 8))
}

func TestSplit(t *testing.T) {
	ranked := field(11)
	plan := NewPlan(11, 8, models.FormatStandard)
	qualified, playIn := Split(ranked, plan)
	assert.Len(t, qualified, 5)
	assert.Len(t, playIn, 3)
	assert.Equal(t, 6, playIn[0].Slot)
	assert.Equal(t, 11, playIn[0].B.Seed)

	qualified, playIn = Split(ranked, NewPlan(11, 8, models.FormatMLP))
	assert.Len(t, qualified, 8)
	assert.Empty(t, playIn)
}

func TestBuildFiveTeamsInEight(t *testing.T) {
	tree := Build(Input{Size: 8, Qualified: field(5), ThirdPlace: true})
	assert.Equal(t, 3, tree.Rounds)

	round1 := tree.Round(1)
	require.Len(t, round1, 4)

	byes := 0
	for _, n := range round1 {
		if n.Left.Bye || n.Right.Bye {
			byes++
			assert.Equal(t, StatusFinished, n.Status)
			assert.NotZero(t, n.WinnerTeamID)
			assert.Zero(t, n.MatchID, "bye matches have no recorded match")
		}
	}
	assert.Equal(t, 3, byes)

	// 4 v 5 is the only real match.
	assert.Equal(t, StatusScheduled, round1[1].Status)
	assert.Equal(t, 4, round1[1].Left.Seed)
	assert.Equal(t, 5, round1[1].Right.Seed)
	assert.Equal(t, []models.EliminationMatch{{TeamAID: 104, TeamBID: 105, RoundIndex: 0, Position: 1}}, tree.Playable(1))
	assert.Equal(t, 1, tree.NextPlayableRound(0))

	round2 := tree.Round(2)
	require.Len(t, round2, 2)
	assert.Equal(t, uint(101), round2[0].Left.TeamID)
	assert.False(t, round2[0].Right.Known(), "waits for 4 v 5")
	assert.Equal(t, uint(102), round2[1].Left.TeamID)
	assert.Equal(t, uint(103), round2[1].Right.TeamID)

	// Round 1 feeds round 2 by index.
	r1 := tree.byRound[1]
	r2 := tree.byRound[2]
	assert.Equal(t, r2[0], tree.Nodes[r1[0]].Next)
	assert.Equal(t, models.SideA, tree.Nodes[r1[0]].NextSide)
	assert.Equal(t, r2[0], tree.Nodes[r1[1]].Next)
	assert.Equal(t, models.SideB, tree.Nodes[r1[1]].NextSide)
	assert.Equal(t, r2[1], tree.Nodes[r1[3]].Next)

	final := tree.Round(3)
	require.Len(t, final, 2)
	assert.False(t, final[0].ThirdPlace)
	assert.True(t, final[1].ThirdPlace)
	assert.Equal(t, -1, final[1].Next)
}

func TestBuildRoundSizes(t *testing.T) {
	for _, size := range Sizes {
		tree := Build(Input{Size: size, Qualified: field(size)})
		for r := 1; r <= tree.Rounds; r++ {
			assert.Len(t, tree.Round(r), size>>r, "size %d round %d", size, r)
		}
	}
}

func TestBuildAppliesResults(t *testing.T) {
	in := Input{
		Size:       4,
		Qualified:  field(4),
		ThirdPlace: true,
		Results: []Result{
			{MatchID: 1, Stage: models.MatchStageElimination, RoundIndex: 0, Position: 0, TeamAID: 101, TeamBID: 104, WinnerTeamID: 101},
			{MatchID: 2, Stage: models.MatchStageElimination, RoundIndex: 0, Position: 1, TeamAID: 102, TeamBID: 103, WinnerTeamID: 103},
		},
	}
	tree := Build(in)
	assert.Empty(t, tree.Playable(1))
	assert.Equal(t, 2, tree.NextPlayableRound(1))
	assert.Equal(t, []models.EliminationMatch{
		{TeamAID: 101, TeamBID: 103, RoundIndex: 1, Position: 0},
		{TeamAID: 104, TeamBID: 102, RoundIndex: 1, Position: 1, ThirdPlace: true},
	}, tree.Playable(2))

	final := tree.Round(2)[0]
	assert.Equal(t, 3, final.Right.Seed, "winners keep their seed")

	_, ok := tree.Champion()
	assert.False(t, ok)

	in.Results = append(in.Results,
		Result{MatchID: 3, Stage: models.MatchStageElimination, RoundIndex: 1, Position: 0, TeamAID: 101, TeamBID: 103, WinnerTeamID: 103},
		Result{MatchID: 4, Stage: models.MatchStageElimination, RoundIndex: 1, Position: 1, TeamAID: 104, TeamBID: 102, Started: true},
	)
	tree = Build(in)
	champ, ok := tree.Champion()
	require.True(t, ok)
	assert.Equal(t, uint(103), champ.TeamID)
	assert.Equal(t, StatusInProgress, tree.Round(2)[1].Status)
	assert.Empty(t, tree.Playable(2))
}

func TestBuildWithPlayIn(t *testing.T) {
	ranked := field(10)
	plan := NewPlan(10, 8, models.FormatStandard)
	qualified, playIn := Split(ranked, plan)

	tree := Build(Input{
		Size:      8,
		Qualified: qualified,
		PlayIn:    playIn,
		Results: []Result{
			{MatchID: 9, Stage: models.MatchStagePlayIn, Position: 0, TeamAID: 107, TeamBID: 110, WinnerTeamID: 110},
		},
	})

	playInNodes := tree.Round(0)
	require.Len(t, playInNodes, 2)
	assert.Equal(t, StatusFinished, playInNodes[0].Status)
	assert.Equal(t, 10, playInNodes[0].WinnerSeed)

	round1 := tree.Round(1)
	// 2 v 7 slot now holds the 10 seed that won its play-in.
	assert.Equal(t, uint(110), round1[2].Right.TeamID)
	assert.Equal(t, 10, round1[2].Right.Seed)
	// 1 v 8 slot is still pending, not a bye.
	assert.False(t, round1[0].Right.Known())
	assert.False(t, round1[0].Right.Bye)
	assert.Equal(t, StatusScheduled, round1[0].Status)

	assert.Equal(t, tree.byRound[1][2], tree.Nodes[tree.byRound[0][0]].Next)
	assert.Equal(t, models.SideB, tree.Nodes[tree.byRound[0][0]].NextSide)
	assert.Equal(t, tree.byRound[1][0], tree.Nodes[tree.byRound[0][1]].Next)

	assert.Len(t, tree.Playable(1), 3, "every round 1 match except the one waiting on the play-in")
}

func TestBuildShowsSwappedTeams(t *testing.T) {
	tree := Build(Input{
		Size:      4,
		Qualified: field(4),
		Results: []Result{
			{MatchID: 1, Stage: models.MatchStageElimination, Position: 0, TeamAID: 101, TeamBID: 103},
			{MatchID: 2, Stage: models.MatchStageElimination, Position: 1, TeamAID: 102, TeamBID: 104},
		},
	})
	round1 := tree.Round(1)
	assert.Equal(t, uint(103), round1[0].Right.TeamID)
	assert.Equal(t, 3, round1[0].Right.Seed)
	assert.Equal(t, uint(104), round1[1].Right.TeamID)
	assert.Equal(t, uint(1), round1[0].MatchID)
}
