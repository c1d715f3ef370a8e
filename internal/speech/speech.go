// Package speech turns narration text into audio.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AnshulGupta2004/Video-Automation/internal/config"
)

// Clip is synthesized audio. Duration is 0 when the provider does not report
// it; callers probe the written file then.
type Clip struct {
	Data     []byte
	Format   string // file extension, e.g. "mp3"
	Duration float64
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) (*Clip, error)
}

// New builds the synthesizer named by cfg.Provider, wrapped in the SQLite
// cache when cfg.CachePath is set. The returned close function is never nil.
func New(cfg config.SpeechConfig) (Synthesizer, func() error, error) {
	var s Synthesizer
	switch cfg.Provider {
	case "elevenlabs", "":
		if cfg.APIKey == "" {
			return nil, nil, fmt.Errorf("ELEVENLABS_API_KEY is not set")
		}
		s = NewElevenLabs(cfg)
	default:
		return nil, nil, fmt.Errorf("unknown speech provider: %s", cfg.Provider)
	}

	if cfg.CachePath == "" {
		return s, func() error { return nil }, nil
	}
	cache, err := OpenCache(cfg.CachePath, s, cfg.OutputFormat)
	if err != nil {
		return nil, nil, err
	}
	return cache, cache.Close, nil
}

// ElevenLabs calls the /v1/text-to-speech endpoint.
type ElevenLabs struct {
	BaseURL         string
	APIKey          string
	Model           string
	OutputFormat    string
	Stability       float64
	SimilarityBoost float64
	Style           float64
	SpeakerBoost    bool
	Client          *http.Client
}

func NewElevenLabs(cfg config.SpeechConfig) *ElevenLabs {
	return &ElevenLabs{
		BaseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:          cfg.APIKey,
		Model:           cfg.Model,
		OutputFormat:    cfg.OutputFormat,
		Stability:       cfg.Stability,
		SimilarityBoost: cfg.SimilarityBoost,
		Style:           cfg.Style,
		SpeakerBoost:    cfg.SpeakerBoost,
		Client:          &http.Client{Timeout: 2 * time.Minute},
	}
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Extension maps an output format like "mp3_22050_32" to "mp3".
func Extension(outputFormat string) string {
	ext, _, _ := strings.Cut(outputFormat, "_")
	if ext == "" {
		return "mp3"
	}
	return ext
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text, voiceID string) (*Clip, error) {
	if voiceID == "" {
		return nil, fmt.Errorf("no voice id")
	}
	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: e.Model,
		VoiceSettings: voiceSettings{
			Stability:       e.Stability,
			SimilarityBoost: e.SimilarityBoost,
			Style:           e.Style,
			UseSpeakerBoost: e.SpeakerBoost,
		},
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		e.BaseURL, url.PathEscape(voiceID), url.QueryEscape(e.OutputFormat))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", e.APIKey)

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("elevenlabs: %s - %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("elevenlabs: empty audio")
	}
	return &Clip{Data: data, Format: Extension(e.OutputFormat)}, nil
}
