package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })
	return &buf
}

func TestInfoEmitsJSON(t *testing.T) {
	buf := capture(t)

	Info("customer ingested", "name", "Dana", "count", 3)

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "INFO", entry["level"])
	require.Equal(t, "customer ingested", entry["msg"])
	require.Equal(t, "Dana", entry["name"])
	require.Equal(t, "3", entry["count"])
}

func TestEmailFieldsAreRedacted(t *testing.T) {
	buf := capture(t)

	Info("duplicate dropped", "email", "john.doe@example.com")

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "jo***@example.com", entry["email"])
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	buf := capture(t)

	Debug("noise")
	require.Zero(t, buf.Len())
}

func TestRedactEmail(t *testing.T) {
	require.Equal(t, "jo***@example.com", RedactEmail("john@example.com"))
	require.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	require.Equal(t, "***@***", RedactEmail("not-an-email"))
	require.Equal(t, "***@***", RedactEmail("a@b@c"))
}
