package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordTwoRuns records a passing and a failing run into a fresh log.
func recordTwoRuns(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "runs.db")
	_, err := execute(t, "run", "testdata/passing", "--db", db)
	require.NoError(t, err)
	_, err = execute(t, "run", "testdata/failing", "--db", db)
	require.Error(t, err)
	return db
}

func TestHistory_ListRuns(t *testing.T) {
	db := recordTwoRuns(t)

	out, err := execute(t, "history", "--db", db)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "#2 "), "newest run first: %q", lines[0])
	assert.Contains(t, lines[0], "0 passed, 2 failed, 0 errors, 2 total")
	assert.Contains(t, lines[1], "2 passed, 0 failed, 0 errors, 2 total")
}

func TestHistory_LatestRun(t *testing.T) {
	db := recordTwoRuns(t)

	out, err := execute(t, "history", "--db", db, "--run", "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "  FAILED: missing-throw (m1)\n")
	assert.Contains(t, out, "    Expected exception range was not thrown\n")
	assert.Contains(t, out, "  FAILED: visit-count (463863)\n")
	assert.Contains(t, out, "    Expected value 6, Actual value 8\n")
}

func TestHistory_Case(t *testing.T) {
	db := recordTwoRuns(t)
	_, err := execute(t, "run", "testdata/failing", "--db", db)
	require.Error(t, err)

	out, err := execute(t, "--format", "json", "history", "--db", db, "--case", "visit-count", "--limit", "1")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "visit-count", resp.Data.Case)
	require.Len(t, resp.Data.Outcomes, 1)
	assert.Equal(t, "mismatch", resp.Data.Outcomes[0].Status)
}

func TestHistory_Errors(t *testing.T) {
	_, err := execute(t, "history")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "history", "--db", filepath.Join(t.TempDir(), "absent.db"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	db := recordTwoRuns(t)
	out, err := execute(t, "history", "--db", db, "--run", "no-such-run")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "not found")

	_, err = execute(t, "history", "--db", db, "--run", "latest", "--case", "x")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
