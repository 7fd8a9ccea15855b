package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/tecolab/internal/board"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Period != 200 {
		t.Errorf("expected period 200, got %d", cfg.Period)
	}
	if cfg.Serial.Baud != 115200 {
		t.Errorf("expected baud 115200, got %d", cfg.Serial.Baud)
	}
	if cfg.Serial.BootDelay != 4*time.Second {
		t.Errorf("expected 4s boot delay, got %s", cfg.Serial.BootDelay)
	}
	if cfg.Log.FlushInterval != 5000 {
		t.Errorf("expected 5000 ms flush interval, got %d", cfg.Log.FlushInterval)
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset("hot-room")
	if p == nil {
		t.Fatal("expected preset, got nil")
	}
	if p.Ambient != 35 {
		t.Errorf("expected ambient 35, got %f", p.Ambient)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Errorf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tecolab.yaml")
	data := []byte("period: 0\nserial:\n  port: /dev/ttyACM0\n  boot_delay: 2s\nsimulate:\n  enabled: true\n  speed: -1\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Period != 1 {
		t.Errorf("period below 1 must clamp to 1, got %d", cfg.Period)
	}
	if cfg.Serial.Port != "/dev/ttyACM0" {
		t.Errorf("unexpected port %q", cfg.Serial.Port)
	}
	if cfg.Serial.BootDelay != 2*time.Second {
		t.Errorf("unexpected boot delay %s", cfg.Serial.BootDelay)
	}
	if cfg.Serial.Baud != 115200 {
		t.Errorf("defaults must survive a partial file, got baud %d", cfg.Serial.Baud)
	}
	if !cfg.Simulate.Enabled || cfg.Simulate.Speed != 1 {
		t.Errorf("unexpected simulate section %+v", cfg.Simulate)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Period = 500
	cfg.Simulate.Plant = "fast"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Period != 500 || got.Simulate.Plant != "fast" {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestPlantModel(t *testing.T) {
	cfg := DefaultConfig()
	p, err := cfg.PlantModel()
	if err != nil {
		t.Fatal(err)
	}
	if p != board.DefaultPlant() {
		t.Errorf("expected default plant, got %+v", p)
	}

	cfg.Simulate.Custom = board.Plant{Ambient: 20, Capacity: 1, Power: 1}
	if p, _ := cfg.PlantModel(); p.Ambient != 20 {
		t.Errorf("custom plant ignored: %+v", p)
	}

	cfg.Simulate.Custom = board.Plant{}
	cfg.Simulate.Plant = "lava"
	if _, err := cfg.PlantModel(); err == nil {
		t.Error("expected error for unknown preset")
	}
}
