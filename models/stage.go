package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StageKind is the closed set of states a division moves through.
type StageKind int

const (
	StageNone StageKind = iota // round robin not generated yet
	StageRRInProgress
	StageRRComplete
	StagePlayInScheduled
	StagePlayInComplete
	StagePlayoffScheduled
	StagePlayoffComplete
	StageFinalScheduled
	StageFinalComplete
	StageDivisionComplete
)

var stageNames = map[StageKind]string{
	StageRRInProgress:     "RR_IN_PROGRESS",
	StageRRComplete:       "RR_COMPLETE",
	StagePlayInScheduled:  "PLAY_IN_SCHEDULED",
	StagePlayInComplete:   "PLAY_IN_COMPLETE",
	StageFinalScheduled:   "FINAL_SCHEDULED",
	StageFinalComplete:    "FINAL_COMPLETE",
	StageDivisionComplete: "DIVISION_COMPLETE",
}

// Stage is a division state. Round is the 1-based playoff round and is only
// meaningful for the PO kinds.
type Stage struct {
	Kind  StageKind
	Round int
}

func PlayoffScheduled(round int) Stage { return Stage{Kind: StagePlayoffScheduled, Round: round} }
func PlayoffComplete(round int) Stage  { return Stage{Kind: StagePlayoffComplete, Round: round} }
func StageOf(kind StageKind) Stage     { return Stage{Kind: kind} }

func (s Stage) String() string {
	switch s.Kind {
	case StageNone:
		return ""
	case StagePlayoffScheduled:
		return fmt.Sprintf("PO_R%d_SCHEDULED", s.Round)
	case StagePlayoffComplete:
		return fmt.Sprintf("PO_R%d_COMPLETE", s.Round)
	}
	return stageNames[s.Kind]
}

// ParseStage is the inverse of String. The empty string parses to StageNone.
func ParseStage(v string) (Stage, error) {
	if v == "" {
		return Stage{}, nil
	}
	for k, name := range stageNames {
		if name == v {
			return Stage{Kind: k}, nil
		}
	}
	if strings.HasPrefix(v, "PO_R") {
		rest := strings.TrimPrefix(v, "PO_R")
		kind := StagePlayoffScheduled
		num, ok := strings.CutSuffix(rest, "_SCHEDULED")
		if !ok {
			kind = StagePlayoffComplete
			num, ok = strings.CutSuffix(rest, "_COMPLETE")
		}
		if ok {
			n, err := strconv.Atoi(num)
			if err == nil && n > 0 {
				return Stage{Kind: kind, Round: n}, nil
			}
		}
	}
	return Stage{}, fmt.Errorf("unknown stage %q", v)
}

// Group returns the match stage whose rows make up this state's work, or "" when none does.
func (s Stage) Group() MatchStage {
	switch s.Kind {
	case StageRRInProgress, StageRRComplete:
		return MatchStageRoundRobin
	case StagePlayInScheduled, StagePlayInComplete:
		return MatchStagePlayIn
	case StagePlayoffScheduled, StagePlayoffComplete, StageFinalScheduled, StageFinalComplete:
		return MatchStageElimination
	}
	return ""
}

// IsComplete reports whether every match of the stage group has been scored.
func (s Stage) IsComplete() bool {
	switch s.Kind {
	case StageRRComplete, StagePlayInComplete, StagePlayoffComplete, StageFinalComplete:
		return true
	}
	return false
}

// Completed returns the _COMPLETE counterpart of a scheduled or in-progress stage.
func (s Stage) Completed() Stage {
	switch s.Kind {
	case StageRRInProgress:
		return StageOf(StageRRComplete)
	case StagePlayInScheduled:
		return StageOf(StagePlayInComplete)
	case StagePlayoffScheduled:
		return PlayoffComplete(s.Round)
	case StageFinalScheduled:
		return StageOf(StageFinalComplete)
	}
	return s
}

func (s Stage) Value() (driver.Value, error) {
	if s.Kind == StageNone {
		return nil, nil
	}
	return s.String(), nil
}

func (s *Stage) Scan(src interface{}) error {
	var v string
	switch t := src.(type) {
	case nil:
		*s = Stage{}
		return nil
	case string:
		v = t
	case []byte:
		v = string(t)
	default:
		return fmt.Errorf("Stage: expected string, got %T", src)
	}
	parsed, err := ParseStage(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Stage) MarshalJSON() ([]byte, error) {
	if s.Kind == StageNone {
		return []byte("null"), nil
	}
	return json.Marshal(s.String())
}

func (s *Stage) UnmarshalJSON(b []byte) error {
	var v *string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v == nil {
		*s = Stage{}
		return nil
	}
	parsed, err := ParseStage(*v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
