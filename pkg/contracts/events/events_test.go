package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benfordlens/pkg/contracts"
)

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope(EventAnalysisStarted, AnalysisStarted{
		JobID:      "job-1",
		Source:     "ledger.xlsx",
		SheetCount: 3,
	})

	assert.Equal(t, contracts.APIVersion, env.Version)
	assert.Equal(t, EventAnalysisStarted, env.Type)
	assert.False(t, env.Timestamp.IsZero())
}

func TestEnvelopeJSONShape(t *testing.T) {
	env := NewEnvelope(EventColumnAnalyzed, ColumnAnalyzed{
		JobID:        "job-1",
		Sheet:        "Q1",
		Column:       "Amount",
		ColumnsDone:  2,
		ColumnsTotal: 8,
		TotalValues:  150,
		MAD:          0.0042,
		ChiSquare:    6.3,
		Conformity:   "close",
	})

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "v1", decoded["version"])
	assert.Equal(t, "column:analyzed", decoded["type"])

	data, ok := decoded["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Q1", data["sheet"])
	assert.Equal(t, "Amount", data["column"])
	assert.InDelta(t, 0.0042, data["mad"], 1e-9)
}

func TestEventTypeValues(t *testing.T) {
	// Clients key on these strings; changing one is a breaking
	// protocol change.
	assert.Equal(t, EventType("analysis:started"), EventAnalysisStarted)
	assert.Equal(t, EventType("sheet:started"), EventSheetStarted)
	assert.Equal(t, EventType("column:analyzed"), EventColumnAnalyzed)
	assert.Equal(t, EventType("analysis:completed"), EventAnalysisCompleted)
	assert.Equal(t, EventType("analysis:failed"), EventAnalysisFailed)
}
