package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	Setup(Config{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Info().Msg("hidden")
	log.Warn().Str("file", "a.csv").Msg("upload rejected")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("not a single JSON line: %q", buf.String())
	}
	if entry["message"] != "upload rejected" || entry["file"] != "a.csv" || entry["level"] != "warn" {
		t.Fatalf("entry=%v", entry)
	}
}

func TestSetupDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	Setup(Config{Level: "loud", Output: &buf})
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("level=%s", zerolog.GlobalLevel())
	}
}
