package system

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// DurationProber measures the playback length of a media file in seconds.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// FFProbe measures durations with the ffprobe binary.
type FFProbe struct {
	Binary string
}

func (p FFProbe) ProbeDuration(ctx context.Context, path string) (float64, error) {
	bin := p.Binary
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin, "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return ParseDuration(string(out))
}

// ParseDuration parses ffprobe's bare duration output.
func ParseDuration(out string) (float64, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(out), err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive duration %f", d)
	}
	return d, nil
}

func InitResourceLimits(logger *zap.Logger) {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Warn("could not read open file limit", zap.Error(err))
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Warn("could not raise open file limit", zap.Error(err))
	} else {
		logger.Debug("open file limit raised", zap.Uint64("limit", uint64(rLimit.Cur)))
	}
}

// perWorkerBytes is a rough budget for one worker holding a rotation loop of
// 1080p RGBA frames plus an ffmpeg process.
const perWorkerBytes = 512 << 20

// RecommendedWorkers sizes worker pools from the logical CPU count, capped
// by how many per-worker budgets fit in available memory. requested > 0 wins.
func RecommendedWorkers(requested int) int {
	if requested > 0 {
		return requested
	}
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		n = 1
	}
	if vm, err := mem.VirtualMemory(); err == nil && vm.Available > 0 {
		byMem := int(vm.Available / perWorkerBytes)
		if byMem < 1 {
			byMem = 1
		}
		if byMem < n {
			n = byMem
		}
	}
	return n
}

var (
	encodersOnce sync.Once
	encodersOut  string
	filtersOnce  sync.Once
	filtersOut   string
)

func GetBestH264Encoder() (string, string) {
	// Preference: VideoToolbox (macOS), NVENC (NVIDIA), then software libx264.
	encoders := []struct {
		name string
		args string
	}{
		{"h264_videotoolbox", ""},
		{"h264_nvenc", ""},
	}

	encodersOnce.Do(func() {
		out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
		if err == nil {
			encodersOut = string(out)
		}
	})

	for _, enc := range encoders {
		if strings.Contains(encodersOut, enc.name) {
			return enc.name, enc.args
		}
	}

	return "libx264", ""
}

// CheckFilterSupport reports whether the local ffmpeg build has the named filter.
func CheckFilterSupport(name string) bool {
	filtersOnce.Do(func() {
		out, err := exec.Command("ffmpeg", "-hide_banner", "-filters").CombinedOutput()
		if err == nil {
			filtersOut = string(out)
		}
	})
	for _, line := range strings.Split(filtersOut, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}

// DefaultQuality picks a quality value suited to the encoder.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}
