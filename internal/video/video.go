package video

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AnshulGupta2004/Video-Automation/internal/config"
	"github.com/AnshulGupta2004/Video-Automation/internal/effects"
)

// AudioRef is a sub-range of an audio file played under a clip.
type AudioRef struct {
	Path     string  `yaml:"path"`
	Offset   float64 `yaml:"offset"`
	Duration float64 `yaml:"duration"`
}

// Clip is one slot of the timeline. A single frame is held for Duration; a
// sequence plays each frame for 1/FrameRate seconds.
type Clip struct {
	Index     int
	Frames    []image.Image
	FrameRate float64
	Duration  float64
	Effect    effects.Effect
	Audio     *AudioRef
}

// Overlay is a PNG composited at X,Y during [Start, End).
type Overlay struct {
	Path       string
	X, Y       int
	Start, End float64
}

// Composition is everything the encoder needs for the final stream.
type Composition struct {
	Clips         []Clip
	Overlays      []Overlay
	Width, Height int
	FPS           int
}

// Duration sums the clip durations.
func (c *Composition) Duration() float64 {
	var d float64
	for _, cl := range c.Clips {
		d += cl.Duration
	}
	return d
}

type Encoder interface {
	Encode(ctx context.Context, comp *Composition, outPath, workDir string) error
}

type FFmpegEncoder struct {
	Binary       string
	VideoEncoder string
	Quality      int
	AudioCodec   string
	Workers      int
	Logger       *zap.Logger
}

func NewFFmpegEncoder(cfg *config.Config, logger *zap.Logger) *FFmpegEncoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegEncoder{
		Binary:       "ffmpeg",
		VideoEncoder: cfg.VideoEncoder,
		Quality:      cfg.Quality,
		AudioCodec:   cfg.AudioCodec,
		Workers:      cfg.Workers,
		Logger:       logger,
	}
}

func (e *FFmpegEncoder) bin() string {
	if e.Binary == "" {
		return "ffmpeg"
	}
	return e.Binary
}

// QualityArgs maps a quality value to the rate control flags of the encoder.
func QualityArgs(encoderName string, quality int) []string {
	switch encoderName {
	case "h264_videotoolbox":
		// VideoToolbox does not take -q:v on every build; use bitrate
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

// Encode renders every non-empty clip to its own file in workDir, then joins
// them and burns in the overlays.
func (e *FFmpegEncoder) Encode(ctx context.Context, comp *Composition, outPath, workDir string) error {
	type part struct {
		path string
		used bool
	}
	parts := make([]part, len(comp.Clips))

	g, gctx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		g.SetLimit(e.Workers)
	}
	for i := range comp.Clips {
		clip := comp.Clips[i]
		if clip.Duration <= 0 || len(clip.Frames) == 0 {
			continue
		}
		p := filepath.Join(workDir, fmt.Sprintf("clip_%03d.mp4", i))
		parts[i] = part{path: p, used: true}
		g.Go(func() error {
			if err := e.EncodeClip(gctx, clip, p, comp.FPS); err != nil {
				return fmt.Errorf("clip %d: %w", clip.Index, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var inputs []string
	for _, p := range parts {
		if p.used {
			inputs = append(inputs, p.path)
		}
	}
	if len(inputs) == 0 {
		return fmt.Errorf("nothing to encode: every clip is empty")
	}

	args := ComposeArgs(inputs, comp.Overlays, outPath, e.VideoEncoder, e.Quality, e.audioCodec())
	e.Logger.Info("composing", zap.Int("clips", len(inputs)), zap.Int("overlays", len(comp.Overlays)), zap.String("output", outPath))
	cmd := exec.CommandContext(ctx, e.bin(), args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg compose error: %v, output: %s", err, tail(out))
	}
	return nil
}

func (e *FFmpegEncoder) audioCodec() string {
	if e.AudioCodec == "" {
		return "aac"
	}
	return e.AudioCodec
}

// EncodeClip pipes the clip's frames to ffmpeg as raw RGBA.
func (e *FFmpegEncoder) EncodeClip(ctx context.Context, clip Clip, videoPath string, fps int) error {
	b := clip.Frames[0].Bounds()
	effect := clip.Effect
	if effect == nil {
		if len(clip.Frames) > 1 {
			effect = effects.SequenceEffect{}
		} else {
			effect = effects.HoldEffect{}
		}
	}
	params := config.SlotParams{
		Width:     b.Dx(),
		Height:    b.Dy(),
		FPS:       fps,
		Duration:  clip.Duration,
		SlotIndex: clip.Index,
		Frames:    len(clip.Frames),
	}
	args := ClipArgs(clip, params, effect.GenerateFilter(params), videoPath, e.VideoEncoder, e.Quality, e.audioCodec())

	cmd := exec.CommandContext(ctx, e.bin(), args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	for _, f := range clip.Frames {
		if err := writeRawRGBA(stdin, f); err != nil {
			stdin.Close()
			cmd.Wait()
			return fmt.Errorf("write raw error: %w", err)
		}
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w: %s", err, tail([]byte(stderr.String())))
	}
	return nil
}

// ClipArgs builds the ffmpeg arguments for one clip. Clips without audio get
// silence so every part has the same stream layout for concat.
func ClipArgs(clip Clip, p config.SlotParams, filter, videoPath, encoderName string, quality int, audioCodec string) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
	}
	if clip.FrameRate > 0 {
		args = append(args, "-framerate", fmt.Sprintf("%f", clip.FrameRate))
	}
	args = append(args, "-i", "-")

	if clip.Audio != nil && clip.Audio.Path != "" {
		args = append(args,
			"-ss", fmt.Sprintf("%f", clip.Audio.Offset),
			"-t", fmt.Sprintf("%f", clip.Audio.Duration),
			"-i", clip.Audio.Path,
		)
	} else {
		args = append(args,
			"-f", "lavfi",
			"-t", fmt.Sprintf("%f", p.Duration),
			"-i", "anullsrc=r=44100:cl=stereo",
		)
	}

	args = append(args,
		"-vf", filter,
		"-map", "0:v", "-map", "1:a",
		"-t", fmt.Sprintf("%f", p.Duration),
		"-r", fmt.Sprintf("%d", p.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", encoderName,
	)
	args = append(args, QualityArgs(encoderName, quality)...)
	args = append(args,
		"-af", fmt.Sprintf("apad=whole_dur=%f", p.Duration),
		"-c:a", audioCodec, "-ar", "44100", "-ac", "2",
		videoPath,
	)
	return args
}

// ComposeArgs concatenates the clip files and overlays every caption during
// its interval.
func ComposeArgs(inputs []string, overlays []Overlay, finalPath, encoderName string, quality int, audioCodec string) []string {
	args := []string{"-y"}
	for _, p := range inputs {
		args = append(args, "-i", p)
	}
	for _, o := range overlays {
		args = append(args, "-i", o.Path)
	}

	var graph strings.Builder
	for i := range inputs {
		fmt.Fprintf(&graph, "[%d:v][%d:a]", i, i)
	}
	fmt.Fprintf(&graph, "concat=n=%d:v=1:a=1[v0][aout]", len(inputs))

	last := "[v0]"
	for j, o := range overlays {
		out := fmt.Sprintf("[v%d]", j+1)
		fmt.Fprintf(&graph, ";%s[%d:v]overlay=x=%d:y=%d:enable='between(t,%f,%f)'%s",
			last, len(inputs)+j, o.X, o.Y, o.Start, o.End, out)
		last = out
	}

	args = append(args, "-filter_complex", graph.String(), "-map", last, "-map", "[aout]")
	args = append(args, "-c:v", encoderName, "-pix_fmt", "yuv420p")
	args = append(args, QualityArgs(encoderName, quality)...)
	args = append(args, "-c:a", audioCodec, "-movflags", "+faststart", finalPath)
	return args
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > 2000 {
		s = "..." + s[len(s)-2000:]
	}
	return s
}

// RemovePartial deletes a half-written output file.
func RemovePartial(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		zap.L().Warn("could not remove partial output", zap.String("path", path), zap.Error(err))
	}
}
