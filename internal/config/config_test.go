package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(oldWd)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MailboxCapacity != 16 {
		t.Fatalf("expected default mailbox capacity 16, got %d", cfg.MailboxCapacity)
	}
	if cfg.GRPCAddr != ":40051" {
		t.Fatalf("expected default grpc addr, got %q", cfg.GRPCAddr)
	}
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nexosim.yaml")
	contents := "mailbox_capacity: 64\ngrpc_addr: \":9999\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MailboxCapacity != 64 {
		t.Fatalf("expected file-provided mailbox capacity 64, got %d", cfg.MailboxCapacity)
	}
	if cfg.GRPCAddr != ":9999" {
		t.Fatalf("expected file-provided grpc addr, got %q", cfg.GRPCAddr)
	}
	// Untouched fields still fall back to defaults.
	if cfg.ClockMode != "no_clock" {
		t.Fatalf("expected default clock mode, got %q", cfg.ClockMode)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nexosim.yaml")
	if err := os.WriteFile(path, []byte("grpc_addr: \":9999\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("NEXOSIM_GRPC_ADDR", ":7777")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":7777" {
		t.Fatalf("expected env override :7777, got %q", cfg.GRPCAddr)
	}
}

func TestFlagsRegistersExpectedNames(t *testing.T) {
	fs := Flags()
	for _, name := range []string{"mailbox_capacity", "num_threads", "clock_mode", "grpc_addr", "ws_addr", "http_addr", "amqp_url", "log_level"} {
		if fs.Lookup(name) == nil {
			t.Fatalf("expected flag %q to be registered", name)
		}
	}
}
