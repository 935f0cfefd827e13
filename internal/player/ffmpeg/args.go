package ffmpeg

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"media-player/internal/source"
)

// playback holds the per-launch settings that the engine only reads at
// startup.
type playback struct {
	offset  time.Duration
	looping bool
	volume  float64
	speed   float64
}

// buildArgs creates the FFmpeg arguments for src on the given OS.
func buildArgs(cfg Config, goos string, src *source.MediaSource, pb playback) []string {
	args := []string{"-hide_banner", "-nostdin", "-loglevel", "warning"}

	if pb.offset > 0 {
		args = append(args, "-ss", strconv.FormatFloat(pb.offset.Seconds(), 'f', 3, 64))
	}
	if pb.looping {
		args = append(args, "-stream_loop", "-1")
	}

	input := src.URI
	switch src.Kind {
	case source.KindRTSP:
		args = append(args, "-rtsp_transport", "tcp")
	case source.KindRTMP:
	default:
		if isHTTP(src.URI) {
			// Reconnect support for network streams
			args = append(args,
				"-reconnect", "1",
				"-reconnect_streamed", "1",
				"-reconnect_delay_max", "5",
				"-user_agent", src.UserAgent,
			)
			if h := headerBlock(src.Headers); h != "" {
				args = append(args, "-headers", h)
			}
		}
		if src.Cached() && src.Kind == source.KindProgressive {
			input = "cache:" + src.URI
			if src.Cache.MaxBytes > 0 {
				limit := min(src.Cache.MaxBytes, math.MaxInt32)
				args = append(args, "-read_ahead_limit", strconv.FormatInt(limit, 10))
			}
		}
	}

	args = append(args,
		"-i", input,
		"-vn",
		"-af", audioFilter(pb.volume, pb.speed),
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
	)

	switch goos {
	case "linux":
		// PulseAudio (most modern Linux)
		args = append(args, "-f", "pulse", cfg.Device)
	case "darwin":
		args = append(args, "-f", "audiotoolbox", cfg.Device)
	default: // windows
		args = append(args, "-f", "dshow", "audio="+cfg.Device)
	}
	return args
}

func isHTTP(uri string) bool {
	lower := strings.ToLower(uri)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// headerBlock renders headers in the CRLF-terminated form of -headers,
// sorted by name.
func headerBlock(headers map[string]string) string {
	if len(headers) == 0 {
		return ""
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, headers[k])
	}
	return b.String()
}

func audioFilter(volume, speed float64) string {
	filters := []string{fmt.Sprintf("volume=%.2f", volume)}
	return strings.Join(append(filters, atempoChain(speed)...), ",")
}

// atempoChain splits speed into atempo stages, each within [0.5, 2].
func atempoChain(speed float64) []string {
	if speed <= 0 || speed == 1 {
		return nil
	}
	var stages []string
	for speed > 2 {
		stages = append(stages, "atempo=2")
		speed /= 2
	}
	for speed < 0.5 {
		stages = append(stages, "atempo=0.5")
		speed /= 0.5
	}
	if speed != 1 {
		stages = append(stages, "atempo="+strconv.FormatFloat(speed, 'g', 4, 64))
	}
	return stages
}
