package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "mmdmorph.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Error("Default: ", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
preview:
  size: 256
  format: webp
presets:
  happy:
    smile: "1"
    blink: "clamp(sin(t * 6), 0, 1)"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "debug" || cfg.Preview.Size != 256 || cfg.Preview.Format != "webp" {
		t.Error("Load: ", cfg.Logging, cfg.Preview)
	}
	if cfg.Preview.Supersample != 2 || cfg.Motion.FPS != 30 {
		t.Error("Load: defaults must be kept ", cfg.Preview.Supersample, cfg.Motion.FPS)
	}
	if err := cfg.Validate(); err != nil {
		t.Error("Validate: ", err)
	}

	p, err := cfg.Preset("happy")
	if err != nil || p["smile"] != "1" || len(p) != 2 {
		t.Error("Preset: ", p, err)
	}
	if _, err := cfg.Preset("sad"); err == nil {
		t.Error("Preset: expected error")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load: expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "preview: [")); err == nil {
		t.Error("Load: expected parse error")
	}
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.Resolve(Flags{LogLevel: "warn", Size: 128})
	if cfg.Logging.Level != "warn" || cfg.Preview.Size != 128 || cfg.Preview.Format != "png" {
		t.Error("Resolve: ", cfg.Logging, cfg.Preview)
	}
	cfg.Resolve(Flags{Format: "webp"})
	if cfg.Preview.Format != "webp" || cfg.Preview.Size != 128 {
		t.Error("Resolve format: ", cfg.Preview)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "loud"
	cfg.Preview.Size = 1
	cfg.Preview.Format = "gif"
	cfg.Motion.Smoothing = 2
	cfg.Presets = map[string]map[string]string{"empty": {"smile": ""}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate: expected errors")
	}
	if n := len(multierr.Errors(err)); n != 5 {
		t.Error("Validate: expected 5 errors, got ", n, err)
	}
}
