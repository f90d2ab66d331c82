package config

import (
	"testing"
	"time"

	"github.com/jpalmerr/tickboard"
)

func TestBuildOptions_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	b, err := tickboard.New(BuildOptions(cfg)...)
	if err != nil {
		t.Fatalf("tickboard.New() error = %v", err)
	}

	if b.Port() != 8080 {
		t.Errorf("Port() = %d, want 8080", b.Port())
	}
	if b.SampleInterval() != time.Second {
		t.Errorf("SampleInterval() = %v, want 1s", b.SampleInterval())
	}
	if b.BufferCapacity() != 1000 {
		t.Errorf("BufferCapacity() = %d, want 1000", b.BufferCapacity())
	}
	if b.Title() != "" {
		t.Errorf("Title() = %q, want empty", b.Title())
	}
}

func TestBuildOptions_FullConfig(t *testing.T) {
	yaml := `
title: Prices
port: 9090
sample_interval: 100ms
buffer_capacity: 3
max_sessions: 7
noise:
  distribution: laplace
  mean: 0
  stddev: 0
seed_range: [10, 20]
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	b, err := tickboard.New(BuildOptions(cfg)...)
	if err != nil {
		t.Fatalf("tickboard.New() error = %v", err)
	}

	if b.Title() != "Prices" {
		t.Errorf("Title() = %q, want Prices", b.Title())
	}
	if b.Port() != 9090 {
		t.Errorf("Port() = %d, want 9090", b.Port())
	}
	if b.SampleInterval() != 100*time.Millisecond {
		t.Errorf("SampleInterval() = %v, want 100ms", b.SampleInterval())
	}
	if b.BufferCapacity() != 3 {
		t.Errorf("BufferCapacity() = %d, want 3", b.BufferCapacity())
	}
	if b.MaxSessions() != 7 {
		t.Errorf("MaxSessions() = %d, want 7", b.MaxSessions())
	}
}

func TestBuildOptions_UnparsedConfigStillValidated(t *testing.T) {
	// a hand-built config that skipped Parse is rejected by tickboard.New
	cfg := &Config{Port: 0, SampleInterval: Duration(time.Second), BufferCapacity: 1,
		SeedRange: SeedRange{Min: 1, Max: 2}}

	if _, err := tickboard.New(BuildOptions(cfg)...); err == nil {
		t.Error("tickboard.New() expected error for port 0, got nil")
	}
}
