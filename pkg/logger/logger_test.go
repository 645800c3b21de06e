package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsFlowThroughError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{ServiceName: "api", Level: zerolog.DebugLevel, Output: &buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithItemID(ctx, "item-9")
	log.Error(ctx, "boom", errors.New("boom"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("request_id missing from entry: %v", entry)
	}
	if entry["item_id"] != "item-9" {
		t.Fatalf("item_id missing from entry: %v", entry)
	}
	if entry["service"] != "api" {
		t.Fatalf("service field missing from entry: %v", entry)
	}
	if _, ok := entry["stack"]; !ok {
		t.Fatalf("errors must carry a stack trace: %v", entry)
	}
}

func TestWarnStackToggle(t *testing.T) {
	var withStack bytes.Buffer
	New(Options{ServiceName: "api", Output: &withStack, WarnStack: true}).Warn(context.Background(), "slow query")
	if !bytes.Contains(withStack.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected stack on warn when enabled: %s", withStack.String())
	}

	var without bytes.Buffer
	New(Options{ServiceName: "api", Output: &without}).Warn(context.Background(), "slow query")
	if bytes.Contains(without.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("unexpected stack on warn when disabled: %s", without.String())
	}
}

func TestParseLevel(t *testing.T) {
	if lvl := ParseLevel("warn"); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn, got %v", lvl)
	}
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("blank should default to info, got %v", lvl)
	}
	if lvl := ParseLevel("nonsense"); lvl != zerolog.InfoLevel {
		t.Fatalf("unknown should fall back to info, got %v", lvl)
	}
}
