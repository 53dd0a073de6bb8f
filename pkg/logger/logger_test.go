package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestLoggerWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("transport", &buf)

	log.Info("query posted", "endpoint", "/graphql", "status", 200)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if line["message"] != "query posted" {
		t.Errorf("message = %v", line["message"])
	}
	if line["component"] != "transport" {
		t.Errorf("component = %v", line["component"])
	}
	if line["endpoint"] != "/graphql" {
		t.Errorf("endpoint = %v", line["endpoint"])
	}
	if line["status"] != float64(200) {
		t.Errorf("status = %v", line["status"])
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("transport", &buf).WithLevel("warn")

	log.Debug("hidden")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("below-threshold levels wrote output: %s", buf.String())
	}

	log.Warn("shown")
	if buf.Len() == 0 {
		t.Error("warn level should write output")
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	// Must not panic and must accept odd kv shapes.
	log := Nop()
	log.Error("boom", "key")
	log.Info("ok", "a", 1, "b", 2)
}
