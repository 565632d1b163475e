package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestStdoutLoggerEmitsJSONLines(t *testing.T) {
	var buf bytes.Buffer
	root := NewStdoutLogger("root")
	root.w = &buf

	child := root.With(
		Field{Key: "component", Value: "scan"},
		Field{Key: "run", Value: 7})
	child.Info("started", Field{Key: "url", Value: "https://example.com"})

	var entry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component"`
		Time      string         `json:"time"`
		Fields    map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not one JSON object: %v\n%s", err, buf.String())
	}
	if entry.Level != "info" || entry.Msg != "started" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Component != "scan" {
		t.Errorf("component = %q, want the With override", entry.Component)
	}
	if entry.Time == "" {
		t.Error("entry has no timestamp")
	}
	if entry.Fields["run"] != float64(7) {
		t.Errorf("persistent field run = %v", entry.Fields["run"])
	}
	if entry.Fields["url"] != "https://example.com" {
		t.Errorf("call-site field url = %v", entry.Fields["url"])
	}
}

func TestStdoutLoggerChildKeepsParentFields(t *testing.T) {
	var buf bytes.Buffer
	root := NewStdoutLogger("")
	root.w = &buf

	withJob := root.With(Field{Key: "job", Value: "nightly"})
	withJob.With(Field{Key: "attempt", Value: 2}).Warn("retrying")

	var entry struct {
		Fields map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Fields["job"] != "nightly" || entry.Fields["attempt"] != float64(2) {
		t.Errorf("fields = %v, want both generations present", entry.Fields)
	}
}
