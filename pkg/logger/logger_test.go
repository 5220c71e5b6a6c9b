package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSensitiveKeysMasked(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.Info("user login", "email", "pm@acme.test", "password", "hunter2", "invite_code", "ABCD-EFGH")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if entry["password"] != "***" {
		t.Errorf("password = %v, want masked", entry["password"])
	}
	if entry["invite_code"] != "***" {
		t.Errorf("invite_code = %v, want masked", entry["invite_code"])
	}
	if entry["email"] != "pm@acme.test" {
		t.Errorf("email = %v, want passthrough", entry["email"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "text", Output: &buf})

	log.Info("should be dropped")
	log.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info entry emitted at warn level")
	}
	if !strings.Contains(out, "should appear") {
		t.Error("warn entry missing")
	}
}
