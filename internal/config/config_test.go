package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
	if cfg.MinPhotos != 8 || cfg.HeroPhoto != 8 || cfg.DetailPhoto != 7 || cfg.RotationSeed != 6 {
		t.Errorf("Unexpected photo positions: %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carreel.yaml")
	data := []byte(`
preset: "9:16"
fps: 25
captions: false
speech:
  voice_id: Vihan
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Width != 1080 || cfg.Height != 1920 {
		t.Errorf("Expected 1080x1920 from preset, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FPS != 25 {
		t.Errorf("Expected fps 25, got %d", cfg.FPS)
	}
	if cfg.Captions {
		t.Error("Expected captions disabled")
	}
	// untouched keys keep defaults
	if cfg.Speech.OutputFormat != "mp3_22050_32" {
		t.Errorf("Expected default output format, got %s", cfg.Speech.OutputFormat)
	}
	if got := cfg.ResolveVoice(""); got != "bUTE2M5LdnqaUCd5tJB3" {
		t.Errorf("Expected Vihan's voice id, got %s", got)
	}
}

func TestResolveVoice(t *testing.T) {
	cfg := Default()
	if got := cfg.ResolveVoice("Harry"); got != "SOYHLrjzK2X1ezoPC6cr" {
		t.Errorf("Expected catalogue lookup, got %s", got)
	}
	if got := cfg.ResolveVoice("rawVoiceID"); got != "rawVoiceID" {
		t.Errorf("Expected raw id passthrough, got %s", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"odd width", func(c *Config) { c.Width = 1281 }},
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"hero beyond min photos", func(c *Config) { c.HeroPhoto = 9 }},
		{"seed zero", func(c *Config) { c.RotationSeed = 0 }},
		{"negative retries", func(c *Config) { c.EncodeRetries = -1 }},
		{"caption narrower than a glyph", func(c *Config) { c.Width, c.CaptionMargin = 64, 20 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestDelimiterRune(t *testing.T) {
	cfg := Default()
	if cfg.DelimiterRune() != ';' {
		t.Errorf("Expected ';'")
	}
	cfg.Delimiter = "|"
	if cfg.DelimiterRune() != '|' {
		t.Errorf("Expected '|'")
	}
	cfg.Delimiter = ""
	if cfg.DelimiterRune() != ';' {
		t.Errorf("Expected fallback ';'")
	}
}
