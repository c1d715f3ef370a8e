package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	FPS           int     `yaml:"fps"`
	Workers       int     `yaml:"workers"`
	Preset        string  `yaml:"preset"`
	VideoEncoder  string  `yaml:"video_encoder"`
	Quality       int     `yaml:"quality"`
	AudioCodec    string  `yaml:"audio_codec"`
	ZoomMode      string  `yaml:"zoom_mode"`
	ZoomSpeed     float64 `yaml:"zoom_speed"`
	FocusDetector string  `yaml:"focus_detector"` // used by zoom_mode "focus"
	EncodeRetries int     `yaml:"encode_retries"`

	Delimiter    string `yaml:"delimiter"`
	MinPhotos    int    `yaml:"min_photos"`
	HeroPhoto    int    `yaml:"hero_photo"`    // 1-based position of the two highlight/offer frames
	DetailPhoto  int    `yaml:"detail_photo"`  // 1-based position of the details frame
	RotationSeed int    `yaml:"rotation_seed"` // 1-based position recorded as the rotation slot source

	Captions      bool `yaml:"captions"`
	FontSize      int  `yaml:"font_size"`
	CaptionMargin int  `yaml:"caption_margin"`

	OpeningFrame string `yaml:"opening_frame"`
	ClosingFrame string `yaml:"closing_frame"`
	ClosingQRURL string `yaml:"closing_qr_url"`
	Dealer       string `yaml:"dealer"`

	Rasterizer    string `yaml:"rasterizer"` // rod | fitz
	RemoverURL    string `yaml:"remover_url"`
	WorkRoot      string `yaml:"work_root"`
	OutputDir     string `yaml:"output_dir"`
	WriteManifest bool   `yaml:"write_manifest"`

	Speech SpeechConfig `yaml:"speech"`
}

// SpeechConfig configures the text-to-speech collaborator.
type SpeechConfig struct {
	Provider        string            `yaml:"provider"`
	BaseURL         string            `yaml:"base_url"`
	APIKey          string            `yaml:"-"`
	Model           string            `yaml:"model"`
	OutputFormat    string            `yaml:"output_format"`
	VoiceID         string            `yaml:"voice_id"`
	Stability       float64           `yaml:"stability"`
	SimilarityBoost float64           `yaml:"similarity_boost"`
	Style           float64           `yaml:"style"`
	SpeakerBoost    bool              `yaml:"speaker_boost"`
	CachePath       string            `yaml:"cache_path"`
	Voices          map[string]string `yaml:"voices"`
}

// SlotParams is what the encoder needs to turn one scheduled slot into a clip.
type SlotParams struct {
	Width, Height int
	FPS           int
	Duration      float64
	ZoomMode      string
	ZoomSpeed     float64
	SlotIndex     int
	Frames        int // number of input frames fed to the encoder
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Width:         1920,
		Height:        1080,
		FPS:           30,
		Workers:       runtime.NumCPU(),
		VideoEncoder:  "libx264",
		Quality:       23,
		AudioCodec:    "aac",
		ZoomMode:      "none",
		ZoomSpeed:     0.0005,
		FocusDetector: "contrast",
		EncodeRetries: 1,
		Delimiter:     ";",
		MinPhotos:     8,
		HeroPhoto:     8,
		DetailPhoto:   7,
		RotationSeed:  6,
		Captions:      true,
		FontSize:      30,
		CaptionMargin: 20,
		Rasterizer:    "rod",
		OutputDir:     "output",
		WriteManifest: true,
		Speech: SpeechConfig{
			Provider:        "elevenlabs",
			BaseURL:         "https://api.elevenlabs.io",
			Model:           "eleven_multilingual_v2",
			OutputFormat:    "mp3_22050_32",
			Stability:       0.50,
			SimilarityBoost: 0.30,
			Style:           0.15,
			SpeakerBoost:    true,
			Voices:          DefaultVoices(),
		},
	}
}

// DefaultVoices is the named voice catalogue offered to operators.
func DefaultVoices() map[string]string {
	return map[string]string{
		"Harry":  "SOYHLrjzK2X1ezoPC6cr",
		"Thomas": "GBv7mTt0atIp3Br8iCZE",
		"Shrey":  "IMzcdjL6UK1gZxag6QAU",
		"Raju":   "zT03pEAEi0VHKciJODfn",
		"Leo":    "IvLWq57RKibBrqZGpQrC",
		"Niraj":  "zgqefOY5FPQ3bB7OZTVR",
		"Amit":   "Sxk6njaoa7XLsAFT7WcN",
		"Aakash": "Uyx98Ek4uMNmWN7E28CD",
		"Anoop":  "WyjIvPRJbxeuLCf0u23f",
		"Sachin": "XRdIKD2HKD2sMJjeC483",
		"Vihan":  "bUTE2M5LdnqaUCd5tJB3",
		"Kunal":  "Qxb5zQvEo3DYQK2HNnXm",
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Speech.Voices == nil {
		cfg.Speech.Voices = DefaultVoices()
	}
	cfg.ApplyPreset()
	return cfg, nil
}

// ApplyPreset maps a named aspect preset onto Width/Height.
func (c *Config) ApplyPreset() {
	switch c.Preset {
	case "16:9":
		c.Width, c.Height = 1920, 1080
	case "9:16":
		c.Width, c.Height = 1080, 1920
	case "4:5":
		c.Width, c.Height = 1080, 1350
	}
}

// ResolveVoice accepts either a catalogue name or a raw voice ID.
func (c *Config) ResolveVoice(nameOrID string) string {
	if nameOrID == "" {
		nameOrID = c.Speech.VoiceID
	}
	if id, ok := c.Speech.Voices[nameOrID]; ok {
		return id
	}
	return nameOrID
}

// DelimiterRune returns the first rune of Delimiter, ';' when unset.
func (c *Config) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ';'
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		return fmt.Errorf("resolution %dx%d must be even for yuv420p", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid fps %d", c.FPS)
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("invalid font size %d", c.FontSize)
	}
	if c.Captions && c.Width-2*c.CaptionMargin < c.FontSize {
		return fmt.Errorf("caption width %dpx is narrower than one %dpx glyph", c.Width-2*c.CaptionMargin, c.FontSize)
	}
	if c.MinPhotos < 1 {
		return fmt.Errorf("min_photos must be positive, got %d", c.MinPhotos)
	}
	for name, pos := range map[string]int{"hero_photo": c.HeroPhoto, "detail_photo": c.DetailPhoto, "rotation_seed": c.RotationSeed} {
		if pos < 1 || pos > c.MinPhotos {
			return fmt.Errorf("%s must be within 1..%d, got %d", name, c.MinPhotos, pos)
		}
	}
	if c.EncodeRetries < 0 {
		return fmt.Errorf("encode_retries must not be negative")
	}
	return nil
}
