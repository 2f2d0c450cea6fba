package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fluxorio/asyncworker/pkg/config"
)

func TestDumpSettings(t *testing.T) {
	t.Setenv("TASKDEMO_EXECUTOR_KEEPALIVE", "4s")
	out := filepath.Join(t.TempDir(), "effective.toml")

	if err := dumpSettings("", out); err != nil {
		t.Fatalf("dumpSettings: %v", err)
	}

	var got config.Settings
	if err := config.Load(out, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Executor.KeepAlive.Std() != 4*time.Second {
		t.Errorf("Executor.KeepAlive = %v, want 4s from env", got.Executor.KeepAlive.Std())
	}
	if got.Reactor.Name != "completion" {
		t.Errorf("Reactor.Name = %q, want the default", got.Reactor.Name)
	}
}
