package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"nostrcast/internal/fallback"
	"nostrcast/internal/logging"
	"nostrcast/internal/services"
	"nostrcast/internal/services/ffmpeg"
)

// Codec families the publishing targets accept without conversion.
var compatibleCodecs = map[string]bool{
	"h264": true,
	"hevc": true,
}

// Hardware encoder names per family, in vendor preference order.
var hardwareEncoders = map[string][]string{
	"h265": {"hevc_qsv", "hevc_nvenc", "hevc_amf", "hevc_vaapi"},
	"h264": {"h264_qsv", "h264_nvenc", "h264_amf", "h264_vaapi"},
}

var softwareEncoders = map[string]string{
	"h265": "libx265",
	"h264": "libx264",
}

var bitrateMultiplier = map[string]float64{
	"h265": 1.5,
	"h264": 2.0,
}

// Options controls candidate selection.
type Options struct {
	H265Enabled     bool
	HardwareEnabled bool
	// Overrides replaces auto-detection with an explicit encoder list.
	Overrides []string
}

// Result reports what the planner did with one video.
type Result struct {
	// Path is the file to carry forward: the converted file, or the
	// original when no conversion was needed.
	Path      string
	Converted bool
	// SourceCodec is the probed codec of the input.
	SourceCodec string
	// Encoder is the encoder that produced the output, when converted.
	Encoder string
}

// Planner decides whether a video needs re-encoding and walks the encoder
// ladder until one succeeds.
type Planner struct {
	transcoder ffmpeg.Transcoder
	logger     *slog.Logger
	opts       Options
}

// NewPlanner constructs a planner around the given transcoder.
func NewPlanner(transcoder ffmpeg.Transcoder, logger *slog.Logger, opts Options) *Planner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Planner{
		transcoder: transcoder,
		logger:     logger.With(logging.FieldComponent, "transcode"),
		opts:       opts,
	}
}

// Process probes input and converts it when the codec is incompatible,
// writing any converted file into outputDir so it shares the run's staging
// lifecycle. Unknown source bitrate and an exhausted candidate ladder both
// surface as unsupported-codec errors.
func (p *Planner) Process(ctx context.Context, input, outputDir string) (Result, error) {
	probe, err := p.transcoder.Probe(ctx, input)
	if err != nil {
		return Result{}, services.Wrap(services.ErrUnsupportedCodec, "transcode", "probe", "probe input video", err)
	}

	codec := strings.ToLower(probe.Codec)
	if compatibleCodecs[codec] {
		p.logger.Debug("codec already compatible", "codec", codec, "file", input)
		return Result{Path: input, SourceCodec: codec}, nil
	}
	if probe.BitRate <= 0 {
		return Result{}, services.Wrap(services.ErrUnsupportedCodec, "transcode", "plan",
			fmt.Sprintf("cannot size target bitrate for codec %s", codec), errors.New("source bitrate unknown"))
	}

	candidates, err := p.Candidates(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 0 {
		return Result{}, services.Wrap(services.ErrUnsupportedCodec, "transcode", "plan",
			fmt.Sprintf("no usable encoder for codec %s", codec), errors.New("candidate list empty"))
	}

	filters := preserveFilters(probe)
	p.logger.Info("conversion required", "codec", codec, "bitrate", probe.BitRate, "candidates", len(candidates))

	var winner string
	output, err := fallback.TryInOrder(ctx, candidates, func(ctx context.Context, spec ffmpeg.EncoderSpec) (string, error) {
		target := int64(float64(probe.BitRate) * bitrateMultiplier[spec.CodecFamily])
		p.logger.Info("trying encoder", "encoder", spec.Name, "target_bitrate", target)
		out, encodeErr := p.transcoder.Encode(ctx, input, outputDir, spec, target, filters)
		if encodeErr == nil {
			winner = spec.Name
		}
		return out, encodeErr
	})
	if err != nil {
		return Result{}, services.Wrap(services.ErrUnsupportedCodec, "transcode", "encode",
			fmt.Sprintf("all encoders failed for codec %s", codec), err)
	}
	return Result{Path: output, Converted: true, SourceCodec: codec, Encoder: winner}, nil
}

// Candidates builds the ordered encoder list. An override list is validated
// against the encoders this ffmpeg build reports; auto-detection orders
// families h265-hw, h264-hw, h264-sw, h265-sw and admits a hardware encoder
// only after a test encode succeeds.
func (p *Planner) Candidates(ctx context.Context) ([]ffmpeg.EncoderSpec, error) {
	available, err := p.transcoder.ListEncoders(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcode", "list_encoders", "enumerate ffmpeg encoders", err)
	}

	if len(p.opts.Overrides) > 0 {
		return p.overrideCandidates(available)
	}
	return p.detectCandidates(ctx, available), nil
}

func (p *Planner) overrideCandidates(available map[string]bool) ([]ffmpeg.EncoderSpec, error) {
	var specs []ffmpeg.EncoderSpec
	for _, name := range p.opts.Overrides {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !available[name] {
			return nil, services.Wrap(services.ErrConfiguration, "transcode", "plan",
				fmt.Sprintf("configured encoder %s not available in this ffmpeg build", name), nil)
		}
		specs = append(specs, classifyEncoder(name))
	}
	return specs, nil
}

func (p *Planner) detectCandidates(ctx context.Context, available map[string]bool) []ffmpeg.EncoderSpec {
	var specs []ffmpeg.EncoderSpec

	if p.opts.HardwareEnabled {
		if p.opts.H265Enabled {
			specs = append(specs, p.workingHardware(ctx, available, "h265")...)
		}
		specs = append(specs, p.workingHardware(ctx, available, "h264")...)
	}
	if available[softwareEncoders["h264"]] {
		specs = append(specs, ffmpeg.EncoderSpec{Name: softwareEncoders["h264"], CodecFamily: "h264"})
	}
	if p.opts.H265Enabled && available[softwareEncoders["h265"]] {
		specs = append(specs, ffmpeg.EncoderSpec{Name: softwareEncoders["h265"], CodecFamily: "h265"})
	}
	return specs
}

func (p *Planner) workingHardware(ctx context.Context, available map[string]bool, family string) []ffmpeg.EncoderSpec {
	var specs []ffmpeg.EncoderSpec
	for _, name := range hardwareEncoders[family] {
		if !available[name] {
			continue
		}
		if err := p.transcoder.TestEncode(ctx, name); err != nil {
			p.logger.Debug("hardware encoder rejected by test encode", "encoder", name, "error", err)
			continue
		}
		specs = append(specs, ffmpeg.EncoderSpec{Name: name, CodecFamily: family, Hardware: true})
	}
	return specs
}

func classifyEncoder(name string) ffmpeg.EncoderSpec {
	spec := ffmpeg.EncoderSpec{Name: name, CodecFamily: "h264"}
	if strings.Contains(name, "265") || strings.Contains(name, "hevc") {
		spec.CodecFamily = "h265"
	}
	if !strings.HasPrefix(name, "lib") {
		spec.Hardware = true
	}
	return spec
}

// preserveFilters pins the source resolution and aspect ratios so hardware
// encoders do not silently rescale.
func preserveFilters(probe *ffmpeg.ProbeResult) []string {
	var filters []string
	if probe.Width > 0 && probe.Height > 0 {
		filters = append(filters, fmt.Sprintf("scale=%d:%d", probe.Width, probe.Height))
	}
	if probe.SAR != "" && probe.SAR != "N/A" {
		filters = append(filters, "setsar="+strings.ReplaceAll(probe.SAR, ":", "/"))
	}
	if probe.DAR != "" && probe.DAR != "N/A" {
		filters = append(filters, "setdar="+strings.ReplaceAll(probe.DAR, ":", "/"))
	}
	return filters
}
