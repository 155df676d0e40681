package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// ProbeResult captures the video stream properties the transcode planner
// needs.
type ProbeResult struct {
	Codec   string
	Width   int
	Height  int
	BitRate int64 // bits per second; 0 when undeterminable
	DAR     string
	SAR     string
}

// Probe runs a single ffprobe JSON call against path and returns the parsed
// primary video stream.
func (c *CLI) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := commandContext(ctx, c.ffprobeBinary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseProbeJSON(stdout.Bytes())
}

// ParseProbeJSON converts raw ffprobe JSON output into a ProbeResult.
// Exported for testing without a real ffprobe binary.
func ParseProbeJSON(data []byte) (*ProbeResult, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	result := &ProbeResult{}
	for i := range raw.Streams {
		stream := &raw.Streams[i]
		if stream.CodecType != "video" {
			continue
		}
		result.Codec = stream.CodecName
		result.Width = stream.Width
		result.Height = stream.Height
		result.DAR = stream.DisplayAspectRatio
		result.SAR = stream.SampleAspectRatio
		result.BitRate = parseInt64(stream.BitRate)
		break
	}
	if result.Codec == "" {
		return nil, fmt.Errorf("no video stream found")
	}
	if result.BitRate == 0 {
		result.BitRate = parseInt64(raw.Format.BitRate)
	}
	return result, nil
}

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	BitRate string `json:"bit_rate"`
}

type ffprobeStream struct {
	CodecName          string `json:"codec_name"`
	CodecType          string `json:"codec_type"`
	Width              int    `json:"width"`
	Height             int    `json:"height"`
	BitRate            string `json:"bit_rate"`
	DisplayAspectRatio string `json:"display_aspect_ratio"`
	SampleAspectRatio  string `json:"sample_aspect_ratio"`
}

func parseInt64(value string) int64 {
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
