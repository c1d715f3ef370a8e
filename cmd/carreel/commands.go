package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/AnshulGupta2004/Video-Automation/internal/config"
	"github.com/AnshulGupta2004/Video-Automation/internal/engine"
	"github.com/AnshulGupta2004/Video-Automation/internal/faults"
	"github.com/AnshulGupta2004/Video-Automation/internal/frames"
	"github.com/AnshulGupta2004/Video-Automation/internal/manifest"
	"github.com/AnshulGupta2004/Video-Automation/internal/source"
	"github.com/AnshulGupta2004/Video-Automation/internal/speech"
	"github.com/AnshulGupta2004/Video-Automation/internal/system"
	"github.com/AnshulGupta2004/Video-Automation/internal/video"
)

var composeOpts struct {
	script     string
	scriptFile string
	voice      string
	noCaptions bool
	output     string
	preset     string
	width      int
	height     int
	fps        int
	quality    int
	workers    int
	zoomMode   string
	encoder    string
}

var composeCmd = &cobra.Command{
	Use:   "compose <vehicle-folder>...",
	Short: "Compose a promo video",
	Long: `Compose a promo video from a script and one photo folder per vehicle, in order.
The script must hold one segment for the opening, one per folder and one for
the closing, separated by the configured delimiter.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompose,
}

var planOut string

var planCmd = &cobra.Command{
	Use:   "plan <vehicle-folder>...",
	Short: "Print the slot schedule without synthesizing or encoding",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlan,
}

var fetchOpts struct {
	api  string
	root string
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <vehicle-number>...",
	Short: "Download labeled vehicle photos into numbered folders",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFetch,
}

func init() {
	f := composeCmd.Flags()
	f.StringVarP(&composeOpts.script, "script", "s", "", "Narration script")
	f.StringVar(&composeOpts.scriptFile, "script-file", "", "Read the narration script from a file")
	f.StringVar(&composeOpts.voice, "voice", "", "Voice name from the catalogue or a raw voice ID")
	f.BoolVar(&composeOpts.noCaptions, "no-captions", false, "Do not burn in captions")
	f.StringVarP(&composeOpts.output, "output", "o", "", "Output path (generated in output_dir when empty)")
	f.StringVar(&composeOpts.preset, "preset", "", "Aspect preset: 16:9, 9:16 (Shorts/Reels), 4:5 (Instagram)")
	f.IntVar(&composeOpts.width, "width", 0, "Width")
	f.IntVar(&composeOpts.height, "height", 0, "Height")
	f.IntVar(&composeOpts.fps, "fps", 0, "FPS")
	f.IntVar(&composeOpts.quality, "quality", -1, "Quality (x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s, 0 = auto)")
	f.IntVar(&composeOpts.workers, "workers", 0, "Workers (0 = sized from CPU and memory)")
	f.StringVar(&composeOpts.zoomMode, "zoom-mode", "", "Still motion: none, center, top-left, top-right, bottom-left, bottom-right, random, focus")
	f.StringVar(&composeOpts.encoder, "encoder", "", "Video encoder, or auto to detect hardware")

	planCmd.Flags().StringVarP(&composeOpts.script, "script", "s", "", "Narration script")
	planCmd.Flags().StringVar(&composeOpts.scriptFile, "script-file", "", "Read the narration script from a file")
	planCmd.Flags().StringVarP(&planOut, "output", "o", "", "Write the plan here instead of stdout")

	fetchCmd.Flags().StringVar(&fetchOpts.api, "api", os.Getenv("CATALOG_URL"), "Listing service base URL")
	fetchCmd.Flags().StringVar(&fetchOpts.root, "root", "input", "Folder that receives one subfolder per vehicle")
}

func readScript() (string, error) {
	if composeOpts.scriptFile != "" {
		data, err := os.ReadFile(composeOpts.scriptFile)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if strings.TrimSpace(composeOpts.script) == "" {
		return "", fmt.Errorf("a script is required (--script or --script-file)")
	}
	return composeOpts.script, nil
}

func applyFlags(cfg *config.Config) {
	o := composeOpts
	if o.preset != "" {
		cfg.Preset = o.preset
		cfg.ApplyPreset()
	}
	if o.width > 0 {
		cfg.Width = o.width
	}
	if o.height > 0 {
		cfg.Height = o.height
	}
	if o.fps > 0 {
		cfg.FPS = o.fps
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	if o.zoomMode != "" {
		cfg.ZoomMode = o.zoomMode
	}
	if o.encoder != "" {
		cfg.VideoEncoder = o.encoder
	}
	if cfg.VideoEncoder == "auto" {
		cfg.VideoEncoder, _ = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			fmt.Printf("[*] Hardware acceleration detected: %s\n", cfg.VideoEncoder)
		}
	}
	if o.quality >= 0 {
		cfg.Quality = o.quality
	}
	if cfg.Quality == 0 {
		cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
	}
	cfg.Workers = system.RecommendedWorkers(cfg.Workers)
}

func runCompose(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	raw, err := readScript()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	system.InitResourceLimits(logger)

	synth, closeSynth, err := speech.New(cfg.Speech)
	if err != nil {
		return err
	}
	defer closeSynth()

	ras, err := frames.NewRasterizer(cfg.Rasterizer)
	if err != nil {
		return err
	}
	defer ras.Close()

	remover := frames.NewRemover(cfg.RemoverURL)
	renderer := &frames.TemplateRenderer{
		Rasterizer: ras,
		Remover:    remover,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Dealer:     cfg.Dealer,
		Logger:     logger,
	}
	c := engine.New(cfg, synth, renderer, video.NewFFmpegEncoder(cfg, logger), logger)
	if remover != nil {
		c.Remover = remover
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("--- [CARREEL] ---")
	fmt.Printf("[*] Vehicles: %d | %dx%d @ %d FPS | %s\n", len(args), cfg.Width, cfg.Height, cfg.FPS, cfg.VideoEncoder)

	voice := cfg.ResolveVoice(composeOpts.voice)
	captions := cfg.Captions && !composeOpts.noCaptions

	var (
		out      string
		warnings []faults.Warning
	)
	if composeOpts.output == "" {
		out, warnings, err = engine.ComposeVideo(ctx, c, raw, args, voice, captions)
	} else {
		var sets []source.AssetSet
		if sets, err = source.LoadAssetSets(args); err != nil {
			return err
		}
		var res *engine.Result
		res, err = c.Compose(ctx, engine.Request{
			Script:       raw,
			Vehicles:     sets,
			VoiceID:      voice,
			Captions:     captions,
			OpeningFrame: cfg.OpeningFrame,
			ClosingFrame: cfg.ClosingFrame,
			OutputPath:   composeOpts.output,
		})
		if res != nil {
			out, warnings = res.OutputPath, res.Warnings
		}
	}
	for _, w := range warnings {
		fmt.Printf("[!] %s\n", w)
	}
	if err != nil {
		return err
	}
	fmt.Printf("[+++] Done: %s\n", out)
	return nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	raw, err := readScript()
	if err != nil {
		return err
	}

	sets, err := source.LoadAssetSets(args)
	if err != nil {
		return err
	}
	c := engine.New(cfg, nil, nil, nil, nil)
	m, err := c.Preview(engine.Request{
		Script:       raw,
		Vehicles:     sets,
		OpeningFrame: cfg.OpeningFrame,
		ClosingFrame: cfg.ClosingFrame,
	})
	if err != nil {
		return err
	}

	if planOut != "" {
		if err := manifest.Write(m, planOut); err != nil {
			return err
		}
		fmt.Printf("[+] Plan written: %s\n", planOut)
	} else {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		enc.Close()
	}
	return nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	if fetchOpts.api == "" {
		return fmt.Errorf("listing service URL required (--api or CATALOG_URL)")
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	f := &source.Fetcher{
		Catalog: source.NewHTTPCatalog(fetchOpts.api),
		Root:    fetchOpts.root,
		Logger:  logger,
	}
	for _, number := range args {
		dir, warnings, err := f.Fetch(cmd.Context(), number)
		for _, w := range warnings {
			fmt.Printf("[!] %s\n", w)
		}
		if err != nil {
			logger.Error("fetch failed", zap.String("vehicle", number), zap.Error(err))
			return err
		}
		fmt.Printf("[+] %s -> %s\n", number, dir)
	}
	return nil
}
