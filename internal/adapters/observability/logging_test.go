package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger_JSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("prod", &buf)
	l.Info().Int64("hotel_id", 7).Msg("hotel created")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON line, got %q", buf.String())
	}
	if line["service"] != "hotel-reservations" || line["message"] != "hotel created" {
		t.Fatalf("unexpected fields: %v", line)
	}
}

func TestNewLogger_ConsoleInDev(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("dev", &buf)
	l.Info().Msg("booted")
	if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "booted") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
}
