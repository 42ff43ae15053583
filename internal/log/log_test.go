package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := defaultLogger
	SetOutput(&buf)
	t.Cleanup(func() { defaultLogger = prev })
	return &buf
}

func TestLog_FormatsFields(t *testing.T) {
	buf := captureLog(t)

	Info(CatHTTP, "request finished", "status", 200, "path", "/register-participant/")

	line := buf.String()
	require.Contains(t, line, "[INFO] [http] request finished")
	require.Contains(t, line, "status=200")
	require.Contains(t, line, "path=/register-participant/")
	require.True(t, strings.HasSuffix(line, "\n"))
}

func TestLog_OddFieldCount(t *testing.T) {
	buf := captureLog(t)

	Warn(CatUI, "orphan", "key")

	require.Contains(t, buf.String(), "key=<missing>")
}

func TestLog_RespectsMinLevel(t *testing.T) {
	buf := captureLog(t)
	SetMinLevel(LevelWarn)

	Debug(CatUI, "hidden")
	Info(CatUI, "hidden too")
	Error(CatUI, "shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestLog_Disabled(t *testing.T) {
	buf := captureLog(t)
	SetEnabled(false)

	Error(CatUI, "nothing")

	require.Empty(t, buf.String())
}

func TestErrorErr_NilError(t *testing.T) {
	buf := captureLog(t)

	ErrorErr(CatHTTP, "failed", nil)

	require.Contains(t, buf.String(), "error=<nil>")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, LevelWarn, ParseLevel("warning"))
	require.Equal(t, LevelError, ParseLevel("error"))
	require.Equal(t, LevelInfo, ParseLevel("bogus"))
}
