package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewJSONLevel(t *testing.T) {
	var buf bytes.Buffer
	log := For(NewWithWriter(&buf, "warn", "json"), "orders")
	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "kept" || entry[Component] != "orders" {
		t.Fatalf("entry=%v", entry)
	}
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "chatty", "json")
	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug leaked: %s", buf.String())
	}
	log.Info().Msg("shown")
	if buf.Len() == 0 {
		t.Fatal("info missing")
	}
}
