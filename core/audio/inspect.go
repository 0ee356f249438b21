// Package audio reads technical metadata from audio files with ffprobe.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
)

// Metadata is what an inspection learns about one file.
type Metadata struct {
	Duration int    // whole seconds, rounded
	Codec    string // codec of the first audio stream
}

// Inspector reads Metadata from a file on disk.
type Inspector interface {
	Inspect(ctx context.Context, path string) (Metadata, error)
}

// FFmpegInspector runs the ffprobe binary shipped with FFmpeg.
type FFmpegInspector struct {
	path string
}

// NewFFmpegInspector creates an inspector using the ffprobe executable at path.
func NewFFmpegInspector(path string) *FFmpegInspector {
	if path == "" {
		path = "ffprobe"
	}
	return &FFmpegInspector{path: path}
}

// Inspect runs ffprobe on inputFile.
func (p *FFmpegInspector) Inspect(ctx context.Context, inputFile string) (Metadata, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "format=duration:stream=codec_name",
		"-of", "json",
		inputFile,
	}

	cmd := exec.CommandContext(ctx, p.path, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Metadata{}, fmt.Errorf("ffprobe failed for %s: %w: %s", inputFile, err, bytes.TrimSpace(stderr.Bytes()))
	}
	md, err := parseToolOutput(out.Bytes())
	if err != nil {
		return Metadata{}, fmt.Errorf("%s: %w", inputFile, err)
	}
	return md, nil
}

type toolOutput struct {
	Streams []struct {
		CodecName string `json:"codec_name"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseToolOutput(data []byte) (Metadata, error) {
	var out toolOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Metadata{}, fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return Metadata{}, fmt.Errorf("no audio streams found")
	}
	if out.Format.Duration == "" {
		return Metadata{}, fmt.Errorf("duration not found in ffprobe output")
	}

	secs, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil || secs < 0 || math.IsInf(secs, 0) || math.IsNaN(secs) {
		return Metadata{}, fmt.Errorf("invalid duration %q", out.Format.Duration)
	}
	return Metadata{
		Duration: int(math.Round(secs)),
		Codec:    out.Streams[0].CodecName,
	}, nil
}
