package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter(t *testing.T) {
	t.Cleanup(func() { SetupWriter(os.Stdout, "info", "text") })

	var buf bytes.Buffer
	SetupWriter(&buf, "warn", "json")
	require.Equal(t, log.WarnLevel, log.GetLevel())

	log.Info("hidden")
	log.WithField("user_id", "alice").Warn("visible")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "visible", entry["msg"])
	require.Equal(t, "alice", entry["user_id"])

	SetupWriter(&buf, "nonsense", "text")
	require.Equal(t, log.InfoLevel, log.GetLevel())
}
