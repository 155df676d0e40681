// Package transcode decides whether downloaded video needs re-encoding and
// drives the hardware/software encoder ladder until one candidate produces a
// playable h264 or hevc file.
package transcode
