package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vhostlog/internal/types"
)

func TestLogger_LogReject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rejects.jsonl")
	l := NewLogger(path)

	now := time.Date(2020, 3, 10, 14, 22, 1, 0, time.UTC)
	require.NoError(t, l.LogReject(types.Reject{Time: now, Kind: types.RejectNoTimestamp, Error: "date & time not found", Line: "a.b x"}))
	require.NoError(t, l.LogReject(types.Reject{Time: now, Kind: types.RejectParse, Error: "invalid month", Line: "c.d y"}))
	require.NoError(t, l.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var rejects []types.Reject
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r types.Reject
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		rejects = append(rejects, r)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, rejects, 2)
	require.Equal(t, types.RejectNoTimestamp, rejects[0].Kind)
	require.Equal(t, "c.d y", rejects[1].Line)
	require.True(t, rejects[0].Time.Equal(now))
}

func readRejects(t *testing.T, path string) []types.Reject {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rejects []types.Reject
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		var r types.Reject
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		rejects = append(rejects, r)
	}
	return rejects
}

func TestLogger_TruncatesLongLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rejects.jsonl")
	l := NewLogger(path)
	defer l.Close()

	long := "a.b " + strings.Repeat("x", MaxLineBytes)
	require.NoError(t, l.LogReject(types.Reject{Kind: types.RejectNoTimestamp, Line: long}))
	require.NoError(t, l.LogReject(types.Reject{Kind: types.RejectNoTimestamp, Line: "short.example.com x"}))

	rejects := readRejects(t, path)
	require.Len(t, rejects, 2)
	require.Len(t, rejects[0].Line, MaxLineBytes)
	require.True(t, rejects[0].Truncated)
	require.False(t, rejects[1].Truncated)
	require.Equal(t, "short.example.com x", rejects[1].Line)
}

func TestLogger_TruncatesOnRuneBoundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rejects.jsonl")
	l := NewLogger(path)
	defer l.Close()

	// the 2-byte 'é' straddles the cut
	long := strings.Repeat("x", MaxLineBytes-1) + "é" + "tail"
	require.NoError(t, l.LogReject(types.Reject{Kind: types.RejectParse, Line: long}))

	rejects := readRejects(t, path)
	require.Len(t, rejects, 1)
	require.Equal(t, strings.Repeat("x", MaxLineBytes-1), rejects[0].Line)
}

func TestLogger_ReopensAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rejects.jsonl")
	l := NewLogger(path)

	require.NoError(t, l.LogReject(types.Reject{Kind: types.RejectParse, Line: "one"}))
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	require.NoError(t, l.LogReject(types.Reject{Kind: types.RejectParse, Line: "two"}))
	require.NoError(t, l.Close())

	require.Len(t, readRejects(t, path), 2)
}

func TestLogger_OpenFailure(t *testing.T) {
	l := NewLogger(filepath.Join(t.TempDir(), "missing", "rejects.jsonl"))
	require.Error(t, l.LogReject(types.Reject{Kind: types.RejectUnknown}))
}
