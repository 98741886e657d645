package video

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// FFProbe reads media durations with the ffprobe binary.
type FFProbe struct {
	Binary string
}

func NewFFProbe(binary string) *FFProbe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFProbe{Binary: binary}
}

func (p *FFProbe) ReadDuration(ctx context.Context, path string) (int, error) {
	cmd := exec.CommandContext(ctx, p.Binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseDuration(string(output))
}

// parseDuration rounds ffprobe's fractional seconds to the nearest second.
func parseDuration(output string) (int, error) {
	durationStr := strings.TrimSpace(output)
	if durationStr == "" || durationStr == "N/A" {
		return 0, fmt.Errorf("no duration in media metadata")
	}
	seconds, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", durationStr, err)
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("invalid duration %q", durationStr)
	}
	return int(math.Round(seconds)), nil
}
