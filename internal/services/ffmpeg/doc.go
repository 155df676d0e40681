// Package ffmpeg wraps the ffmpeg and ffprobe command-line tools: probing
// video streams, running encodes, and discovering working encoders.
package ffmpeg
