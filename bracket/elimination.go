package bracket

import "piqle_tournament/models"

// Status of a bracket node.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Slot is one side of a bracket node. A slot with no team and no bye is
// pending: its feeder has not produced a winner yet.
type Slot struct {
	Seed     int    `json:"seed"`
	TeamID   uint   `json:"team_id,omitempty"`
	TeamName string `json:"team_name,omitempty"`
	Bye      bool   `json:"bye"`
}

// Known reports whether a team occupies the slot.
func (s Slot) Known() bool {
	return s.TeamID != 0
}

// Node is one match of the projected bracket. Nodes live in Tree.Nodes and
// point at each other by index.
type Node struct {
	Round        int         `json:"round"` // 0 = play-in, 1..Rounds elimination
	Position     int         `json:"position"`
	Left         Slot        `json:"left"`
	Right        Slot        `json:"right"`
	Status       Status      `json:"status"`
	WinnerTeamID uint        `json:"winner_team_id,omitempty"`
	WinnerSeed   int         `json:"winner_seed,omitempty"`
	Next         int         `json:"next"` // -1 when the winner does not advance
	NextSide     models.Side `json:"next_side,omitempty"`
	MatchID      uint        `json:"match_id,omitempty"`
	ThirdPlace   bool        `json:"third_place"`
}

// Result is a persisted PLAY_IN or ELIMINATION match, already resolved.
type Result struct {
	MatchID      uint
	Stage        models.MatchStage
	RoundIndex   int
	Position     int
	TeamAID      uint
	TeamBID      uint
	WinnerTeamID uint
	Started      bool
}

// Input is everything the tree is projected from.
type Input struct {
	Size       int
	Qualified  []Entrant // straight into round 1, Seed doubles as slot
	PlayIn     []PlayInPair
	Results    []Result
	ThirdPlace bool
}

// Tree is the full single-elimination bracket.
type Tree struct {
	Size    int    `json:"size"`
	Rounds  int    `json:"rounds"`
	Nodes   []Node `json:"nodes"`
	byRound [][]int
}

type resultKey struct {
	stage    models.MatchStage
	round    int
	position int
}

type builder struct {
	tree    *Tree
	teams   map[uint]Entrant
	results map[resultKey]Result
	slots   map[int]Entrant
	pending map[int]bool
}

// Build projects the tree. The structure only depends on Size, the seeds and
// play-in pairs; persisted results fill in teams, winners and statuses.
// Results are matched onto nodes by stage, round index and position, and a
// result's teams win over the derived ones so manual swaps show up.
func Build(in Input) *Tree {
	rounds := Rounds(in.Size)
	b := &builder{
		tree: &Tree{
			Size:    in.Size,
			Rounds:  rounds,
			byRound: make([][]int, rounds+1),
		},
		teams:   make(map[uint]Entrant),
		results: make(map[resultKey]Result, len(in.Results)),
		slots:   make(map[int]Entrant),
		pending: make(map[int]bool),
	}
	for _, r := range in.Results {
		b.results[resultKey{r.Stage, r.RoundIndex, r.Position}] = r
	}
	for _, q := range in.Qualified {
		b.teams[q.TeamID] = q
		if q.Seed <= in.Size {
			b.slots[q.Seed] = q
		}
	}
	for _, p := range in.PlayIn {
		b.teams[p.A.TeamID] = p.A
		b.teams[p.B.TeamID] = p.B
	}

	// 1. Play-in, round 0
	for _, p := range in.PlayIn {
		n := Node{
			Round:    0,
			Position: p.Position,
			Left:     entrantSlot(p.A),
			Right:    entrantSlot(p.B),
			Status:   StatusScheduled,
			Next:     -1,
		}
		b.apply(&n, resultKey{models.MatchStagePlayIn, 0, p.Position})
		if n.WinnerTeamID != 0 {
			b.slots[p.Slot] = b.teams[n.WinnerTeamID]
		} else {
			b.pending[p.Slot] = true
		}
		b.add(n)
	}

	// 2. Round 1 from the seed pairs
	for pos, pair := range BracketPairs(in.Size) {
		lo, hi := pair[0], pair[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		n := Node{
			Round:    1,
			Position: pos,
			Left:     b.seedSlot(lo),
			Right:    b.seedSlot(hi),
			Next:     -1,
		}
		resolveByes(&n)
		b.apply(&n, resultKey{models.MatchStageElimination, 0, pos})
		b.add(n)
	}
	if len(in.PlayIn) > 0 {
		refs := slotPosition(in.Size)
		for i, idx := range b.tree.byRound[0] {
			ref, ok := refs[in.PlayIn[i].Slot]
			if !ok || ref.position >= len(b.tree.byRound[1]) {
				continue
			}
			b.tree.Nodes[idx].Next = b.tree.byRound[1][ref.position]
			b.tree.Nodes[idx].NextSide = ref.side
		}
	}

	// 3. Round r match i is fed by round r-1 matches 2i and 2i+1
	for r := 2; r <= rounds; r++ {
		prev := b.tree.byRound[r-1]
		for i := 0; i < len(prev)/2; i++ {
			left, right := prev[2*i], prev[2*i+1]
			n := Node{
				Round:    r,
				Position: i,
				Left:     b.advance(left),
				Right:    b.advance(right),
				Next:     -1,
			}
			resolveByes(&n)
			b.apply(&n, resultKey{models.MatchStageElimination, r - 1, i})
			idx := b.add(n)
			b.tree.Nodes[left].Next, b.tree.Nodes[left].NextSide = idx, models.SideA
			b.tree.Nodes[right].Next, b.tree.Nodes[right].NextSide = idx, models.SideB
		}
	}

	// 4. Third place between the semifinal losers, outside the advancement chain
	if in.ThirdPlace && rounds >= 2 {
		semis := b.tree.byRound[rounds-1]
		if len(semis) == 2 && b.contested(semis[0]) && b.contested(semis[1]) {
			n := Node{
				Round:      rounds,
				Position:   1,
				Left:       b.loser(semis[0]),
				Right:      b.loser(semis[1]),
				Status:     StatusScheduled,
				Next:       -1,
				ThirdPlace: true,
			}
			b.apply(&n, resultKey{models.MatchStageElimination, rounds - 1, 1})
			b.add(n)
		}
	}

	return b.tree
}

func (b *builder) add(n Node) int {
	idx := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, n)
	b.tree.byRound[n.Round] = append(b.tree.byRound[n.Round], idx)
	return idx
}

func entrantSlot(e Entrant) Slot {
	return Slot{Seed: e.Seed, TeamID: e.TeamID, TeamName: e.Name}
}

// seedSlot fills a round 1 slot. A seed nobody holds is a bye unless a
// play-in match is still deciding it.
func (b *builder) seedSlot(seed int) Slot {
	if e, ok := b.slots[seed]; ok {
		return entrantSlot(e)
	}
	if b.pending[seed] {
		return Slot{Seed: seed}
	}
	return Slot{Seed: seed, Bye: true}
}

// advance is the slot a node hands to the next round.
func (b *builder) advance(idx int) Slot {
	n := b.tree.Nodes[idx]
	if n.WinnerTeamID != 0 {
		s := entrantSlot(b.teams[n.WinnerTeamID])
		s.TeamID = n.WinnerTeamID
		s.Seed = n.WinnerSeed
		return s
	}
	if n.Status == StatusFinished {
		return Slot{Bye: true}
	}
	return Slot{}
}

// contested reports whether a node is, or will be, a real match between two teams.
func (b *builder) contested(idx int) bool {
	n := b.tree.Nodes[idx]
	return !n.Left.Bye && !n.Right.Bye
}

func (b *builder) loser(idx int) Slot {
	n := b.tree.Nodes[idx]
	if n.WinnerTeamID == 0 || !n.Left.Known() || !n.Right.Known() {
		return Slot{}
	}
	if n.WinnerTeamID == n.Left.TeamID {
		return n.Right
	}
	return n.Left
}

// resolveByes finishes a node with a bye on one side; the other team walks over.
func resolveByes(n *Node) {
	n.Status = StatusScheduled
	switch {
	case n.Left.Bye && n.Right.Bye:
		n.Status = StatusFinished
	case n.Left.Bye && n.Right.Known():
		n.Status = StatusFinished
		n.WinnerTeamID, n.WinnerSeed = n.Right.TeamID, n.Right.Seed
	case n.Right.Bye && n.Left.Known():
		n.Status = StatusFinished
		n.WinnerTeamID, n.WinnerSeed = n.Left.TeamID, n.Left.Seed
	}
}

func (b *builder) apply(n *Node, key resultKey) {
	r, ok := b.results[key]
	if !ok {
		return
	}
	n.MatchID = r.MatchID
	if r.TeamAID != 0 && r.TeamAID != n.Left.TeamID {
		n.Left = b.teamSlot(r.TeamAID)
	}
	if r.TeamBID != 0 && r.TeamBID != n.Right.TeamID {
		n.Right = b.teamSlot(r.TeamBID)
	}

	n.WinnerTeamID, n.WinnerSeed = 0, 0
	switch {
	case r.WinnerTeamID != 0:
		n.Status = StatusFinished
		n.WinnerTeamID = r.WinnerTeamID
		if r.WinnerTeamID == n.Left.TeamID {
			n.WinnerSeed = n.Left.Seed
		} else {
			n.WinnerSeed = n.Right.Seed
		}
	case r.Started:
		n.Status = StatusInProgress
	default:
		n.Status = StatusScheduled
	}
}

func (b *builder) teamSlot(teamID uint) Slot {
	if e, ok := b.teams[teamID]; ok {
		return entrantSlot(e)
	}
	return Slot{TeamID: teamID}
}

// Round returns the nodes of round r, top to bottom, third place last.
func (t *Tree) Round(r int) []Node {
	if r < 0 || r >= len(t.byRound) {
		return nil
	}
	nodes := make([]Node, len(t.byRound[r]))
	for i, idx := range t.byRound[r] {
		nodes[i] = t.Nodes[idx]
	}
	return nodes
}

// Playable returns the matches of round r that can be created now: both
// teams known, not decided by a bye and not persisted yet.
func (t *Tree) Playable(r int) []models.EliminationMatch {
	if r < 1 {
		return nil
	}
	var out []models.EliminationMatch
	for _, n := range t.Round(r) {
		if n.MatchID != 0 || n.Status == StatusFinished {
			continue
		}
		if !n.Left.Known() || !n.Right.Known() || n.Left.Bye || n.Right.Bye {
			continue
		}
		out = append(out, models.EliminationMatch{
			TeamAID:    n.Left.TeamID,
			TeamBID:    n.Right.TeamID,
			RoundIndex: r - 1,
			Position:   n.Position,
			ThirdPlace: n.ThirdPlace,
		})
	}
	return out
}

// NextPlayableRound returns the first round after the given one that has a
// playable match, skipping rounds decided entirely by byes. 0 means none.
func (t *Tree) NextPlayableRound(after int) int {
	for r := after + 1; r <= t.Rounds; r++ {
		if len(t.Playable(r)) > 0 {
			return r
		}
	}
	return 0
}

// Champion returns the winner of the final, if decided.
func (t *Tree) Champion() (Slot, bool) {
	for _, n := range t.Round(t.Rounds) {
		if n.ThirdPlace || n.WinnerTeamID == 0 {
			continue
		}
		if n.WinnerTeamID == n.Left.TeamID {
			return n.Left, true
		}
		return n.Right, true
	}
	return Slot{}, false
}
