package media

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"nostrcast/internal/services"
)

// Kind classifies an input file by its sniffed MIME family.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Item is one uploadable file produced by the acquisition resolver. Items
// with the same GalleryID form a gallery and share one caption slot, carried
// on the last item of the group.
type Item struct {
	Source     string
	GalleryID  int
	OrderIndex int
	LocalFile  string
	Caption    string
	SourceURL  string
}

// Sniff detects the MIME type of path and classifies it. Anything that is
// not image/* or video/* is rejected as invalid input.
func Sniff(path string) (Kind, string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", services.Wrap(services.ErrInvalidInput, "media", "sniff", path, err)
	}
	mime := mtype.String()
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage, mime, nil
	case strings.HasPrefix(mime, "video/"):
		return KindVideo, mime, nil
	default:
		return "", "", services.Wrap(services.ErrInvalidInput, "media", "sniff",
			fmt.Sprintf("%s: unsupported type %s (want image/* or video/*)", path, mime), nil)
	}
}

// ComposeCaption joins the caller-supplied description and the caption
// extracted from metadata: both present means description first, then a
// blank line, then the extracted text.
func ComposeCaption(description, extracted string) string {
	description = strings.TrimSpace(description)
	extracted = strings.TrimSpace(extracted)
	switch {
	case description != "" && extracted != "":
		return description + "\n\n" + extracted
	case description != "":
		return description
	default:
		return extracted
	}
}

// AggregateCaptions merges the non-empty per-file captions of a gallery into
// the single caption slot, blank-line separated.
func AggregateCaptions(captions []string) string {
	parts := make([]string, 0, len(captions))
	for _, caption := range captions {
		if trimmed := strings.TrimSpace(caption); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n\n")
}
