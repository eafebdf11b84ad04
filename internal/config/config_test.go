package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Address != ":8080" {
		t.Errorf("address: got %s", cfg.Address)
	}
	if cfg.WatchDir != "data/incoming" {
		t.Errorf("watch dir: got %s", cfg.WatchDir)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("poll interval: got %s", cfg.PollInterval)
	}
	if cfg.MinConfidence != 0.9 {
		t.Errorf("min confidence: got %v", cfg.MinConfidence)
	}
	if cfg.BoxPadding != 0.1 {
		t.Errorf("box padding: got %v", cfg.BoxPadding)
	}
	if len(cfg.DetectorCmd) != 2 || cfg.DetectorCmd[0] != "python3" {
		t.Errorf("detector cmd: got %v", cfg.DetectorCmd)
	}
	if cfg.DetectorTimeout != 0 {
		t.Errorf("detector timeout: got %s", cfg.DetectorTimeout)
	}
	if cfg.OverlayImage != "" {
		t.Errorf("overlay image: got %q", cfg.OverlayImage)
	}
}

func TestLoadFractionalPollInterval(t *testing.T) {
	t.Setenv("REDACT_POLL_INTERVAL", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PollInterval != 2500*time.Millisecond {
		t.Errorf("poll interval: got %s", cfg.PollInterval)
	}
}

func TestLoadNonPositivePollIntervalFallsBack(t *testing.T) {
	t.Setenv("REDACT_POLL_INTERVAL", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("poll interval: got %s", cfg.PollInterval)
	}
}

func TestLoadMinConfidenceOutOfRange(t *testing.T) {
	t.Setenv("REDACT_MIN_CONFIDENCE", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for confidence > 1")
	}
}

func TestLoadEmptyDetectorCmd(t *testing.T) {
	t.Setenv("REDACT_DETECTOR_CMD", "   ")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an empty detector command")
	}
}

func TestLoadDetectorCmdSplit(t *testing.T) {
	t.Setenv("REDACT_DETECTOR_CMD", "/usr/local/bin/detect --model fast")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/usr/local/bin/detect", "--model", "fast"}
	if len(cfg.DetectorCmd) != len(want) {
		t.Fatalf("detector cmd: got %v", cfg.DetectorCmd)
	}
	for i := range want {
		if cfg.DetectorCmd[i] != want[i] {
			t.Fatalf("detector cmd: got %v", cfg.DetectorCmd)
		}
	}
}
