// Package engine runs a composition from script to encoded video.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AnshulGupta2004/Video-Automation/internal/analyzer"
	"github.com/AnshulGupta2004/Video-Automation/internal/caption"
	"github.com/AnshulGupta2004/Video-Automation/internal/config"
	"github.com/AnshulGupta2004/Video-Automation/internal/effects"
	"github.com/AnshulGupta2004/Video-Automation/internal/faults"
	"github.com/AnshulGupta2004/Video-Automation/internal/frames"
	"github.com/AnshulGupta2004/Video-Automation/internal/imaging"
	"github.com/AnshulGupta2004/Video-Automation/internal/manifest"
	"github.com/AnshulGupta2004/Video-Automation/internal/rotation"
	"github.com/AnshulGupta2004/Video-Automation/internal/schedule"
	"github.com/AnshulGupta2004/Video-Automation/internal/script"
	"github.com/AnshulGupta2004/Video-Automation/internal/source"
	"github.com/AnshulGupta2004/Video-Automation/internal/speech"
	"github.com/AnshulGupta2004/Video-Automation/internal/system"
	"github.com/AnshulGupta2004/Video-Automation/internal/video"
)

type Phase string

const (
	Segmenting        Phase = "SEGMENTING"
	Scheduling        Phase = "SCHEDULING"
	SynthesizingAudio Phase = "SYNTHESIZING_AUDIO"
	BuildingSlots     Phase = "BUILDING_SLOTS"
	Compositing       Phase = "COMPOSITING"
	Encoding          Phase = "ENCODING"
	Done              Phase = "DONE"
	Failed            Phase = "FAILED"
)

// Request is one composition job.
type Request struct {
	Script       string
	Vehicles     []source.AssetSet
	VoiceID      string
	Captions     bool
	OpeningFrame string
	ClosingFrame string
	OutputPath   string
}

// ScheduledSlot is a slot as it ended up on the output timeline.
type ScheduledSlot struct {
	schedule.Slot
	VehicleName string
	Source      string
	Start       float64
	Duration    float64
	Gap         bool
}

type Result struct {
	RunID      string
	OutputPath string
	Warnings   []faults.Warning
	Schedule   []ScheduledSlot
	Segments   []script.Segment
	Duration   float64
}

type Compositor struct {
	Config    *config.Config
	Synth     speech.Synthesizer
	Frames    frames.Renderer
	Encoder   video.Encoder
	Prober    system.DurationProber
	Scheduler *schedule.Scheduler
	Rotation  *rotation.Builder
	Remover   rotation.Cutter // nil leaves turntable photos as shot
	Captions  *caption.Renderer
	Logger    *zap.Logger
}

func New(cfg *config.Config, synth speech.Synthesizer, fr frames.Renderer, enc video.Encoder, logger *zap.Logger) *Compositor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compositor{
		Config:    cfg,
		Synth:     synth,
		Frames:    fr,
		Encoder:   enc,
		Prober:    system.FFProbe{},
		Scheduler: schedule.New(cfg, logger),
		Rotation:  rotation.NewBuilder(cfg.Width, cfg.Height),
		Logger:    logger,
	}
}

// SplitQuarters divides a vehicle segment into its four slot durations.
// The last quarter absorbs the rounding so the parts add up to d.
func SplitQuarters(d float64) [schedule.BlockSize]float64 {
	var q [schedule.BlockSize]float64
	part := d / schedule.BlockSize
	rest := d
	for i := 0; i < schedule.BlockSize-1; i++ {
		q[i] = part
		rest -= part
	}
	q[schedule.BlockSize-1] = rest
	return q
}

type track struct {
	path     string
	duration float64
}

// run is the mutable state of one Compose call.
type run struct {
	c      *Compositor
	req    Request
	ws     *Workspace
	logger *zap.Logger
	phase  Phase

	segments  []script.Segment // narrated: opening, eligible vehicles, closing
	plan      *schedule.Plan
	slots     []schedule.Slot
	framePath map[int]string // slot index -> derived frame
	tracks    []track
	clips     []video.Clip
	sources   []string
	overlays  []video.Overlay
	scheduled []ScheduledSlot
	pooled    []*rotation.Clip
	canvases  []*image.RGBA
	duration  float64

	mu       sync.Mutex
	warnings []faults.Warning
}

func (r *run) warn(ws ...faults.Warning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range ws {
		r.logger.Warn(w.Message, zap.String("kind", string(w.Kind)), zap.String("vehicle", w.Vehicle), zap.String("path", w.Path))
		r.warnings = append(r.warnings, w)
	}
}

func (r *run) enter(p Phase) {
	r.logger.Info("phase", zap.String("from", string(r.phase)), zap.String("to", string(p)))
	r.phase = p
}

func (r *run) release() {
	for _, c := range r.pooled {
		c.Release()
	}
	for _, img := range r.canvases {
		system.PutImage(img)
	}
	reused, fresh := system.PoolStats()
	r.logger.Debug("canvas pool", zap.Int64("reused", reused), zap.Int64("fresh", fresh))
	if err := r.ws.Release(); err != nil {
		r.logger.Warn("could not remove workspace", zap.String("dir", r.ws.Dir), zap.Error(err))
	}
}

// Compose runs the state machine. The returned error is a *faults.PhaseError
// naming the phase that failed.
func (c *Compositor) Compose(ctx context.Context, req Request) (*Result, error) {
	ws, err := NewWorkspace(c.Config.WorkRoot)
	if err != nil {
		return nil, &faults.PhaseError{Phase: string(Segmenting), Err: err}
	}
	r := &run{
		c:         c,
		req:       req,
		ws:        ws,
		logger:    c.Logger.With(zap.String("run", ws.ID)),
		framePath: make(map[int]string),
	}
	defer r.release()

	steps := []struct {
		phase Phase
		fn    func(context.Context) error
	}{
		{Segmenting, r.segment},
		{Scheduling, r.schedule},
		{SynthesizingAudio, r.synthesize},
		{BuildingSlots, r.buildSlots},
		{Compositing, r.composite},
		{Encoding, r.encode},
	}

	start := time.Now()
	for _, s := range steps {
		r.enter(s.phase)
		err := ctx.Err()
		if err == nil {
			err = s.fn(ctx)
		}
		if err != nil {
			r.enter(Failed)
			r.logger.Error("composition failed", zap.String("phase", string(s.phase)), zap.Error(err))
			return nil, &faults.PhaseError{Phase: string(s.phase), Err: err}
		}
	}
	r.enter(Done)
	r.logger.Info("composition finished",
		zap.String("output", req.OutputPath),
		zap.Float64("duration", r.duration),
		zap.Int("warnings", len(r.warnings)),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{
		RunID:      ws.ID,
		OutputPath: req.OutputPath,
		Warnings:   r.warnings,
		Schedule:   r.scheduled,
		Segments:   r.segments,
		Duration:   r.duration,
	}, nil
}

func (r *run) segment(ctx context.Context) error {
	segs, err := script.Segments(r.req.Script, len(r.req.Vehicles), r.c.Config.DelimiterRune())
	if err != nil {
		return err
	}
	r.segments = segs
	r.logger.Info("script split", zap.Int("segments", len(segs)))
	return nil
}

func (r *run) schedule(ctx context.Context) error {
	plan, warnings := r.c.Scheduler.Plan(r.req.Vehicles)
	r.warn(warnings...)
	if plan.Eligible() == 0 {
		return faults.ErrNoEligibleVehicles
	}
	r.plan = plan

	// only the eligible vehicles are narrated
	narrated := []script.Segment{r.segments[0]}
	for _, a := range plan.Vehicles {
		narrated = append(narrated, r.segments[a.Index+1])
	}
	narrated = append(narrated, r.segments[len(r.segments)-1])
	r.segments = narrated

	r.slots = plan.Slots()
	if r.c.Frames == nil {
		return nil
	}
	for i, s := range r.slots {
		kind := s.Frame()
		if kind == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := r.ws.Path("frames", fmt.Sprintf("frame_%d.png", i))
		alloc := plan.Vehicles[s.Vehicle]
		if err := r.c.Frames.Render(ctx, kind, alloc, dst); err != nil {
			return &faults.SynthesisFailure{Service: "rasterizer", Segment: s.Segment, Err: err}
		}
		r.framePath[i] = dst
	}
	return nil
}

func (r *run) synthesize(ctx context.Context) error {
	r.tracks = make([]track, len(r.segments))
	voice := r.req.VoiceID

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(system.RecommendedWorkers(r.c.Config.Workers))
	for i, seg := range r.segments {
		g.Go(func() error {
			clip, err := r.c.Synth.Synthesize(gctx, seg.Text, voice)
			if err != nil {
				return &faults.SynthesisFailure{Service: "speech", Segment: i, Err: err}
			}
			path := r.ws.Path("audio", fmt.Sprintf("segment_%d.%s", i, clip.Format))
			if err := os.WriteFile(path, clip.Data, 0644); err != nil {
				return &faults.SynthesisFailure{Service: "speech", Segment: i, Err: err}
			}

			d := clip.Duration
			if d <= 0 {
				if d, err = r.c.Prober.ProbeDuration(gctx, path); err != nil {
					return &faults.SynthesisFailure{Service: "speech", Segment: i, Err: err}
				}
			}
			r.tracks[i] = track{path: path, duration: d}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var total float64
	for _, t := range r.tracks {
		total += t.duration
	}
	r.logger.Info("narration synthesized", zap.Int("segments", len(r.tracks)), zap.Float64("seconds", total))
	return nil
}

// still loads a frame for a hold slot at the output size. A missing file
// is reported and yields nil.
func (r *run) still(vehicle, path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			r.warn(faults.Missing(vehicle, path))
			return nil, nil
		}
		return nil, err
	}
	img, err := imaging.Decode(path)
	if err != nil {
		r.warn(faults.Unreadable(vehicle, path, err))
		return nil, nil
	}
	return r.fit(img), nil
}

func (r *run) fit(img image.Image) image.Image {
	cfg := r.c.Config
	if b := img.Bounds(); b.Dx() == cfg.Width && b.Dy() == cfg.Height {
		return img
	}
	canvas := imaging.Fit(img, cfg.Width, cfg.Height, color.Black)
	r.canvases = append(r.canvases, canvas)
	return canvas
}

// endFrame is the opening or closing still. No configured path means a
// plain background.
func (r *run) endFrame(path string, closing bool) (image.Image, error) {
	cfg := r.c.Config
	var img image.Image
	if path == "" {
		canvas := system.GetImage(image.Rect(0, 0, cfg.Width, cfg.Height))
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
		r.canvases = append(r.canvases, canvas)
		img = canvas
	} else {
		var err error
		if img, err = r.still("", path); err != nil || img == nil {
			return nil, err
		}
	}

	if closing && cfg.ClosingQRURL != "" {
		rgba := image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
		size := cfg.Height / 4
		if err := frames.StampQR(rgba, cfg.ClosingQRURL, size, cfg.Height/20); err != nil {
			return nil, err
		}
		img = rgba
	}
	return img, nil
}

// motion returns the effect for single-frame slots. The "focus" mode pushes
// toward the subject each frame's analysis finds.
func (r *run) motion() (func(image.Image) effects.Effect, error) {
	cfg := r.c.Config
	if !strings.EqualFold(cfg.ZoomMode, "focus") {
		e := effects.ForMode(cfg.ZoomMode, cfg.ZoomSpeed)
		return func(image.Image) effects.Effect { return e }, nil
	}
	d, err := analyzer.NewDetector(cfg.FocusDetector)
	if err != nil {
		return nil, err
	}
	return func(img image.Image) effects.Effect {
		fx, fy := analyzer.Focus(d, img)
		return effects.ZoomEffect{Mode: "focus", Speed: cfg.ZoomSpeed, FocusX: fx, FocusY: fy}
	}, nil
}

func (r *run) buildSlots(ctx context.Context) error {
	cfg := r.c.Config
	motion, err := r.motion()
	if err != nil {
		return err
	}

	r.clips = make([]video.Clip, len(r.slots))
	r.sources = make([]string, len(r.slots))
	type rotJob struct {
		slot     int
		vehicle  int
		alloc    schedule.Allocation
		duration float64
	}
	var jobs []rotJob

	offsets := make([]float64, len(r.segments))
	for i, s := range r.slots {
		tr := r.tracks[s.Segment]
		clip := video.Clip{Index: i}

		var dur float64
		switch s.Kind {
		case schedule.Opening, schedule.Closing:
			dur = tr.duration
			path := r.req.OpeningFrame
			if s.Kind == schedule.Closing {
				path = r.req.ClosingFrame
			}
			img, err := r.endFrame(path, s.Kind == schedule.Closing)
			if err != nil {
				return err
			}
			r.sources[i] = path
			if img != nil {
				clip.Frames = []image.Image{img}
				clip.Effect = motion(img)
			}
		case schedule.Static:
			dur = SplitQuarters(tr.duration)[s.Part]
			alloc := r.plan.Vehicles[s.Vehicle]
			path, ok := r.framePath[i]
			if !ok {
				path = r.ws.Path("frames", fmt.Sprintf("frame_%d.png", i))
			}
			r.sources[i] = path
			img, err := r.still(alloc.Vehicle, path)
			if err != nil {
				return err
			}
			if img != nil {
				clip.Frames = []image.Image{img}
				clip.Effect = motion(img)
			}
		case schedule.Rotation:
			dur = SplitQuarters(tr.duration)[s.Part]
			alloc := r.plan.Vehicles[s.Vehicle]
			r.sources[i] = alloc.SeedPhoto
			jobs = append(jobs, rotJob{slot: i, vehicle: s.Vehicle, alloc: alloc, duration: dur})
		}

		if s.Kind != schedule.Rotation && clip.Frames == nil {
			// missing frame: the slot collapses and its share of narration is skipped
			offsets[s.Segment] += dur
			r.clips[i] = clip
			continue
		}
		clip.Duration = dur
		clip.Audio = &video.AudioRef{Path: tr.path, Offset: offsets[s.Segment], Duration: dur}
		offsets[s.Segment] += dur
		r.clips[i] = clip
	}

	built := make([]*rotation.Clip, len(jobs))
	var dropMu sync.Mutex
	dropped := make(map[int]bool)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(system.RecommendedWorkers(cfg.Workers))
	for j, job := range jobs {
		g.Go(func() error {
			photos, warnings, err := rotation.LoadPhotos(gctx, job.alloc.Vehicle, job.alloc.Turntable, r.c.Remover)
			r.warn(warnings...)
			if err != nil {
				return err
			}
			clip, err := r.c.Rotation.Build(photos, job.duration)
			if err != nil {
				var empty *faults.EmptyAssetSetError
				if errors.As(err, &empty) {
					// only this vehicle is lost
					r.warn(faults.Dropped(job.alloc.Vehicle, &faults.EmptyAssetSetError{Vehicle: job.alloc.Vehicle}))
					dropMu.Lock()
					dropped[job.vehicle] = true
					dropMu.Unlock()
					return nil
				}
				return fmt.Errorf("vehicle %s: %w", job.alloc.Vehicle, err)
			}
			built[j] = clip
			return nil
		})
	}
	err = g.Wait()
	for _, b := range built {
		if b != nil {
			r.pooled = append(r.pooled, b)
		}
	}
	if err != nil {
		return err
	}

	if len(dropped) == r.plan.Eligible() {
		return faults.ErrNoEligibleVehicles
	}
	for i, s := range r.slots {
		if s.Vehicle >= 0 && dropped[s.Vehicle] {
			r.clips[i] = video.Clip{Index: i}
		}
	}

	for j, job := range jobs {
		rc := built[j]
		if rc == nil {
			continue
		}
		clip := &r.clips[job.slot]
		clip.Frames = make([]image.Image, len(rc.Frames))
		for k, f := range rc.Frames {
			clip.Frames[k] = f
		}
		clip.FrameRate = rc.FrameRate()
		clip.Effect = effects.SequenceEffect{}
	}
	r.logger.Info("slots built", zap.Int("slots", len(r.clips)), zap.Int("rotations", len(jobs)))
	return nil
}

func (r *run) composite(ctx context.Context) error {
	cfg := r.c.Config

	// place slots on the output timeline; gaps take no time
	var t float64
	first := make([]float64, len(r.segments))
	seen := make([]bool, len(r.segments))
	for i, s := range r.slots {
		clip := r.clips[i]
		if clip.Duration > 0 && !seen[s.Segment] {
			first[s.Segment] = t
			seen[s.Segment] = true
		}
		ss := ScheduledSlot{
			Slot:     s,
			Source:   r.sources[i],
			Start:    t,
			Duration: clip.Duration,
			Gap:      clip.Duration <= 0,
		}
		if s.Vehicle >= 0 {
			ss.VehicleName = r.plan.Vehicles[s.Vehicle].Vehicle
		}
		r.scheduled = append(r.scheduled, ss)
		t += clip.Duration
		if !seen[s.Segment] {
			first[s.Segment] = t
		}
		r.segments[s.Segment].End = t
	}
	for i := range r.segments {
		r.segments[i].Start = first[i]
	}
	r.duration = t

	if !r.req.Captions {
		return nil
	}
	rend := r.c.Captions
	if rend == nil {
		var err error
		if rend, err = caption.NewRenderer(cfg.FontSize, cfg.CaptionMargin); err != nil {
			return err
		}
	}
	for i, seg := range r.segments {
		if seg.End <= seg.Start {
			continue
		}
		ov, err := rend.Render(seg.Text, caption.Interval{Start: seg.Start, End: seg.End}, cfg.Width, cfg.Height)
		if err != nil {
			return fmt.Errorf("caption for segment %d: %w", i, err)
		}
		if ov == nil {
			continue
		}
		path := r.ws.Path("captions", fmt.Sprintf("caption_%d.png", i))
		if err := imaging.SavePNG(path, ov.Image); err != nil {
			return err
		}
		r.overlays = append(r.overlays, video.Overlay{
			Path:  path,
			X:     ov.Position.X,
			Y:     ov.Position.Y,
			Start: ov.Interval.Start,
			End:   ov.Interval.End,
		})
	}
	return nil
}

func (r *run) encode(ctx context.Context) error {
	cfg := r.c.Config
	out := r.req.OutputPath
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}

	comp := &video.Composition{
		Clips:    r.clips,
		Overlays: r.overlays,
		Width:    cfg.Width,
		Height:   cfg.Height,
		FPS:      cfg.FPS,
	}

	attempts := 1 + cfg.EncodeRetries
	var err error
	n := 0
	for n < attempts {
		n++
		if err = r.c.Encoder.Encode(ctx, comp, out, r.ws.Dir); err == nil {
			break
		}
		video.RemovePartial(out)
		r.logger.Warn("encode attempt failed", zap.Int("attempt", n), zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		return &faults.EncodeFailure{Attempts: n, Err: err}
	}

	if cfg.WriteManifest {
		mPath := strings.TrimSuffix(out, filepath.Ext(out)) + ".yaml"
		if err := manifest.Write(r.manifest(), mPath); err != nil {
			r.logger.Warn("could not write manifest", zap.String("path", mPath), zap.Error(err))
		}
	}
	return nil
}

func (r *run) manifest() *manifest.Manifest {
	m := &manifest.Manifest{
		Version:  "1",
		RunID:    r.ws.ID,
		Output:   r.req.OutputPath,
		Duration: r.duration,
		Segments: r.segments,
		Vehicles: r.plan.Vehicles,
		Warnings: r.warnings,
	}
	for i, s := range r.scheduled {
		m.Slots = append(m.Slots, manifest.Entry{
			Slot:     i,
			Kind:     s.Kind,
			Segment:  s.Segment,
			Vehicle:  s.VehicleName,
			Frame:    s.Frame(),
			Source:   s.Source,
			Start:    s.Start,
			Duration: s.Duration,
			Gap:      s.Gap,
		})
	}
	return m
}

// ComposeVideo loads the asset folders in order and composes one video into
// the configured output directory. It returns the output path.
func ComposeVideo(ctx context.Context, c *Compositor, rawScript string, folders []string, voiceID string, captions bool) (string, []faults.Warning, error) {
	sets, err := source.LoadAssetSets(folders)
	if err != nil {
		return "", nil, err
	}
	out := filepath.Join(c.Config.OutputDir, fmt.Sprintf("promo_%s.mp4", time.Now().Format("2006-01-02_15-04-05")))
	res, err := c.Compose(ctx, Request{
		Script:       rawScript,
		Vehicles:     sets,
		VoiceID:      voiceID,
		Captions:     captions,
		OpeningFrame: c.Config.OpeningFrame,
		ClosingFrame: c.Config.ClosingFrame,
		OutputPath:   out,
	})
	if err != nil {
		return "", nil, err
	}
	return res.OutputPath, res.Warnings, nil
}
