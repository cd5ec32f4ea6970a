package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	l := New(LevelWarn, &out, &errOut)

	l.Debug("tick")
	l.Info("phase change")
	l.Warn("drop rejected")
	l.Error("archive failed")

	assert.NotContains(t, out.String(), "tick")
	assert.NotContains(t, out.String(), "phase change")
	assert.Contains(t, out.String(), "[TOYS-WARN]")
	assert.Contains(t, out.String(), "drop rejected")
	assert.Contains(t, errOut.String(), "[TOYS-ERROR]")

	l.SetLevel(LevelDebug)
	l.Event("PIECE_SPAWN", "s-1", "robot_head")
	assert.Contains(t, out.String(), "[EVENT:PIECE_SPAWN] Session:s-1 | robot_head")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
