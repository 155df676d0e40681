package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"nostrcast/internal/config"
)

// Requirement defines an external tool the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the external tools for the configured binaries.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "yt-dlp", Command: cfg.Download.YtdlpBinary, Description: "video downloads"},
		{Name: "gallery-dl", Command: cfg.Download.GalleryDLBinary, Description: "image gallery downloads"},
		{Name: "ffmpeg", Command: cfg.Transcode.FFmpegBinary, Description: "video transcoding"},
		{Name: "ffprobe", Command: cfg.Transcode.FFprobeBinary, Description: "video stream probing"},
		{Name: "nak", Command: cfg.Publish.NakBinary, Description: "event signing and blossom uploads"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
