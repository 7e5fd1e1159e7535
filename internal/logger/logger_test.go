package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func Test_parseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"loud":    zapcore.InfoLevel,
	}
	for in, want := range tests {
		require.Equal(t, want, parseLevel(in), in)
	}
}

func Test_splitTag(t *testing.T) {
	tests := []struct {
		in, tag, rest string
	}{
		{"[SHOPIFY] cost %d", "SHOPIFY", "cost %d"},
		{"[DB]connected", "DB", "connected"},
		{"plain %s", "", "plain %s"},
		{"[] empty", "", "[] empty"},
		{"[unterminated", "", "[unterminated"},
	}
	for _, tt := range tests {
		tag, rest := splitTag(tt.in)
		require.Equal(t, tt.tag, tag, tt.in)
		require.Equal(t, tt.rest, rest, tt.in)
	}
}

func Test_Printf_JSON(t *testing.T) {
	var buf bytes.Buffer
	logf := Printf(NewWriter("info", "json", &buf))

	logf("[IMPORT] run=%s fetched=%d", "r1", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "import", entry["logger"])
	require.Equal(t, "run=r1 fetched=3", entry["msg"])
	require.Contains(t, entry, "time")
}

func Test_Printf_Console(t *testing.T) {
	var buf bytes.Buffer
	logf := Printf(NewWriter("debug", "console", &buf))

	logf("no tag %d", 1)
	line := buf.String()
	require.Contains(t, line, "INFO")
	require.True(t, strings.HasSuffix(strings.TrimSpace(line), "no tag 1"))
}

func Test_Level_Filters(t *testing.T) {
	var buf bytes.Buffer
	logf := Printf(NewWriter("warn", "json", &buf))
	logf("[DB] connected")
	require.Zero(t, buf.Len())
}

func Test_New(t *testing.T) {
	require.NotNil(t, New("info", "console"))
}
