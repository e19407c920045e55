package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageStringRoundTrip(t *testing.T) {
	stages := []Stage{
		StageOf(StageRRInProgress),
		StageOf(StageRRComplete),
		StageOf(StagePlayInScheduled),
		StageOf(StagePlayInComplete),
		PlayoffScheduled(1),
		PlayoffComplete(3),
		StageOf(StageFinalScheduled),
		StageOf(StageFinalComplete),
		StageOf(StageDivisionComplete),
	}
	for _, s := range stages {
		t.Run(s.String(), func(t *testing.T) {
			parsed, err := ParseStage(s.String())
			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		})
	}
}

func TestParseStageRejectsGarbage(t *testing.T) {
	for _, v := range []string{"PO_R_SCHEDULED", "PO_R0_COMPLETE", "PO_R2_DONE", "FINISHED"} {
		_, err := ParseStage(v)
		assert.Error(t, err, v)
	}
}

func TestStageCompleted(t *testing.T) {
	assert.Equal(t, StageOf(StageRRComplete), StageOf(StageRRInProgress).Completed())
	assert.Equal(t, StageOf(StagePlayInComplete), StageOf(StagePlayInScheduled).Completed())
	assert.Equal(t, PlayoffComplete(2), PlayoffScheduled(2).Completed())
	assert.Equal(t, StageOf(StageFinalComplete), StageOf(StageFinalScheduled).Completed())
	assert.Equal(t, StageOf(StageDivisionComplete), StageOf(StageDivisionComplete).Completed())
}

func TestStageGroup(t *testing.T) {
	assert.Equal(t, MatchStageRoundRobin, StageOf(StageRRComplete).Group())
	assert.Equal(t, MatchStagePlayIn, StageOf(StagePlayInScheduled).Group())
	assert.Equal(t, MatchStageElimination, PlayoffScheduled(4).Group())
	assert.Equal(t, MatchStageElimination, StageOf(StageFinalComplete).Group())
	assert.Equal(t, MatchStage(""), StageOf(StageDivisionComplete).Group())
}

func TestStageJSONAndScan(t *testing.T) {
	b, err := json.Marshal(PlayoffScheduled(2))
	require.NoError(t, err)
	assert.JSONEq(t, `"PO_R2_SCHEDULED"`, string(b))

	var s Stage
	require.NoError(t, s.Scan([]byte("FINAL_SCHEDULED")))
	assert.Equal(t, StageOf(StageFinalScheduled), s)

	require.NoError(t, s.Scan(nil))
	assert.Equal(t, Stage{}, s)

	v, err := Stage{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
