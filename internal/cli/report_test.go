package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/apreboot/internal/engine/batch"
)

func TestRenderReport(t *testing.T) {
	report := &batch.Report{
		State: batch.StateCompleted,
		Stats: batch.Stats{
			Total:        1234,
			Processed:    1234,
			Success:      1231,
			Failed:       1,
			Skipped:      2,
			SuccessTasks: []batch.SucceededTask{{Identity: "SN1", Name: "lobby", GroupKey: "v1"}},
			SkippedTasks: []batch.SkippedTask{{Identity: "SN2", Name: "dock", Status: "3_04_DisconnectedFromCloud"}},
			FailedTasks: []batch.FailedTask{{
				Identity: "SN3",
				Name:     "roof",
				Error:    "rebooting AP SN3: api error (HTTP 502): upstream connect error",
			}},
		},
		Elapsed:        90 * time.Second,
		AveragePerTask: 1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, report))
	out := buf.String()

	assert.Contains(t, out, "OPERATION SUMMARY\n")
	assert.Contains(t, out, "Mode: LIVE MODE")
	assert.Contains(t, out, "Total APs in CSV: 1,234")
	assert.Contains(t, out, "Successful reboots: 1,231")
	assert.Contains(t, out, "Time taken: 90.00 seconds")
	assert.Contains(t, out, "Average time per AP: 1.50 seconds")
	assert.Contains(t, out, "SUCCESSFULLY REBOOTED APs")
	assert.Contains(t, out, "SKIPPED APs (NOT OPERATIONAL)")
	assert.Contains(t, out, "3_04_DisconnectedFromCloud")
	assert.Contains(t, out, "FAILED APs")
	assert.Contains(t, out, "rebooting AP SN3: api error (HTTP 5\n")
	assert.NotContains(t, out, "upstream")
}

func TestRenderReport_InterruptedSimulateWithoutTables(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, &batch.Report{State: batch.StateCancelled, Simulate: true}))

	out := buf.String()
	assert.Contains(t, out, "OPERATION SUMMARY (INTERRUPTED)")
	assert.Contains(t, out, "SIMULATE MODE")
	assert.False(t, strings.Contains(out, "FAILED APs"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 35))
	assert.Equal(t, "héllo", truncate("héllo wörld", 5))
}
