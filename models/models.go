package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// Format is the tournament format a division is played in.
type Format string

const (
	FormatStandard Format = "STANDARD"
	FormatMLP      Format = "MLP"
)

// MatchStage tags a match with the stage group that generated it.
type MatchStage string

const (
	MatchStageRoundRobin  MatchStage = "ROUND_ROBIN"
	MatchStagePlayIn      MatchStage = "PLAY_IN"
	MatchStageElimination MatchStage = "ELIMINATION"
)

// GameType is the fixed slot of a game inside an MLP match.
type GameType string

const (
	GameWomen  GameType = "WOMEN"
	GameMen    GameType = "MEN"
	GameMixed1 GameType = "MIXED_1"
	GameMixed2 GameType = "MIXED_2"
)

// Side identifies team A or team B of a match.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

const (
	GenderFemale = "F"
	GenderMale   = "M"
)

// ThirdPlaceNote marks the elimination match played between the two semifinal losers.
const ThirdPlaceNote = "Third Place Match"

// Division is one bracket of teams progressing RR -> play-in -> playoff.
type Division struct {
	gorm.Model
	Name           string `gorm:"not null" json:"name"`
	Stage          Stage  `gorm:"type:varchar(32)" json:"stage"`
	MaxTeams       int    `json:"max_teams"` // target bracket size, 0 picks one from the team count
	TeamKind       string `json:"team_kind"`
	Format         Format `gorm:"type:varchar(16)" json:"format"`
	PoolCount      int    `json:"pool_count"`
	SkipThirdPlace bool   `gorm:"default:false" json:"skip_third_place"`
	Version        int    `gorm:"not null;default:0" json:"version"`

	Pools   []Pool  `gorm:"foreignKey:DivisionID" json:"pools,omitempty"`
	Teams   []Team  `gorm:"foreignKey:DivisionID" json:"teams,omitempty"`
	Matches []Match `gorm:"foreignKey:DivisionID" json:"matches,omitempty"`
}

// IsMLP reports whether matches are played as 4 fixed-type games.
func (d *Division) IsMLP() bool {
	return d.Format == FormatMLP
}

// Pool groups teams that play each other during round robin.
type Pool struct {
	gorm.Model
	DivisionID uint   `gorm:"index;not null" json:"division_id"`
	Name       string `json:"name"`
	Order      int    `gorm:"column:sort_order" json:"order"`
}

// Team is an entry in a division. Seed is its rank once round robin is over.
type Team struct {
	gorm.Model
	DivisionID uint     `gorm:"index;not null" json:"division_id"`
	Name       string   `gorm:"not null" json:"name"`
	Seed       int      `json:"seed"`
	PoolID     *uint    `json:"pool_id"`
	Players    []Player `gorm:"foreignKey:TeamID" json:"players,omitempty"`
}

// Player is a roster member of a team.
type Player struct {
	gorm.Model
	TeamID    uint   `gorm:"index;not null" json:"team_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `gorm:"type:varchar(1)" json:"gender"` // F or M
}

// Match is a scheduled pairing of two teams within a stage.
type Match struct {
	gorm.Model
	DivisionID uint       `gorm:"index;not null" json:"division_id"`
	PoolID     *uint      `json:"pool_id"`
	TeamAID    uint       `json:"team_a_id"`
	TeamBID    uint       `json:"team_b_id"`
	TeamA      *Team      `gorm:"foreignKey:TeamAID" json:"team_a,omitempty"`
	TeamB      *Team      `gorm:"foreignKey:TeamBID" json:"team_b,omitempty"`
	RoundIndex int        `json:"round_index"` // 0-based within its stage
	Position   int        `json:"position"`    // slot within the round for play-in and elimination
	Stage      MatchStage `gorm:"type:varchar(16);index" json:"stage"`
	Note       string     `json:"note,omitempty"`
	Locked     bool       `gorm:"default:false" json:"locked"`

	Games      []Game      `gorm:"foreignKey:MatchID" json:"games"`
	Tiebreaker *Tiebreaker `gorm:"foreignKey:MatchID" json:"tiebreaker,omitempty"`
}

// IsThirdPlace reports whether the match is the non-advancing third place match.
func (m *Match) IsThirdPlace() bool {
	return m.Stage == MatchStageElimination && m.Note == ThirdPlaceNote
}

// HasResult reports whether any score has been recorded for the match.
func (m *Match) HasResult() bool {
	if m.Tiebreaker != nil {
		return true
	}
	for _, g := range m.Games {
		if g.Recorded() {
			return true
		}
	}
	return false
}

// Totals sums the recorded game scores per side.
func (m *Match) Totals() (a, b int) {
	for _, g := range m.Games {
		if !g.Recorded() {
			continue
		}
		a += *g.ScoreA
		b += *g.ScoreB
	}
	return a, b
}

// Game is one scored game of a match.
type Game struct {
	gorm.Model
	MatchID  uint      `gorm:"uniqueIndex:idx_game_match_index;not null" json:"match_id"`
	Index    int       `gorm:"column:game_index;uniqueIndex:idx_game_match_index" json:"index"`
	ScoreA   *int      `json:"score_a"`
	ScoreB   *int      `json:"score_b"`
	Winner   *Side     `gorm:"type:varchar(1)" json:"winner"`
	GameType *GameType `gorm:"type:varchar(8)" json:"game_type,omitempty"`

	// MLP player assignment, filled at creation from each roster.
	TeamAPlayer1ID *uint `json:"team_a_player1_id,omitempty"`
	TeamAPlayer2ID *uint `json:"team_a_player2_id,omitempty"`
	TeamBPlayer1ID *uint `json:"team_b_player1_id,omitempty"`
	TeamBPlayer2ID *uint `json:"team_b_player2_id,omitempty"`
}

// Recorded reports whether both scores have been entered.
func (g *Game) Recorded() bool {
	return g.ScoreA != nil && g.ScoreB != nil
}

// Decided reports whether the game has a winner: both scores present, non-negative and unequal.
func (g *Game) Decided() bool {
	return g.Recorded() && *g.ScoreA >= 0 && *g.ScoreB >= 0 && *g.ScoreA != *g.ScoreB
}

// WinnerSide returns the winning side computed from the scores.
func (g *Game) WinnerSide() *Side {
	if !g.Decided() {
		return nil
	}
	s := SideB
	if *g.ScoreA > *g.ScoreB {
		s = SideA
	}
	return &s
}

// Tiebreaker decides an MLP match that split its games 2-2.
type Tiebreaker struct {
	gorm.Model
	MatchID      uint             `gorm:"uniqueIndex;not null" json:"match_id"`
	TeamAScore   int              `json:"team_a_score"`
	TeamBScore   int              `json:"team_b_score"`
	WinnerTeamID uint             `json:"winner_team_id"`
	Sequence     ExchangeSequence `gorm:"type:text" json:"sequence"`
}

// Exchange is one entry of a tiebreaker's point-exchange order.
type Exchange struct {
	Order         int   `json:"order"`
	TeamAPlayerID *uint `json:"team_a_player_id,omitempty"`
	TeamBPlayerID *uint `json:"team_b_player_id,omitempty"`
}

// ExchangeSequence is stored as a JSON column.
type ExchangeSequence []Exchange

func (s ExchangeSequence) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan unmarshals a JSON column into the sequence.
func (s *ExchangeSequence) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("ExchangeSequence: expected []byte or string, got %T", src)
	}
}
