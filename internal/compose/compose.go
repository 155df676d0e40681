package compose

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Input carries the parallel per-item sequences the pipeline accumulated
// plus run-level options. URLs, Captions, and GalleryIDs must have equal
// length; Sources may be empty or equal length.
type Input struct {
	URLs       []string
	Captions   []string
	GalleryIDs []int
	Sources    []string

	Description string
	ShowSources bool
	NSFW        bool
}

// Post is the composed event body and its tags, ready for signing.
type Post struct {
	Content  string
	Tags     [][]string
	Hashtags []string
}

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// Build assembles the post body. Galleries are runs of contiguous equal
// gallery ids; a gallery's URLs appear back-to-back, its caption one blank
// line after the last URL, and two blank lines separate each gallery from
// the next. The global description and the source block each follow one
// blank line after the body.
func Build(in Input) (Post, error) {
	if len(in.URLs) == 0 {
		return Post{}, errors.New("no uploaded URLs to compose")
	}
	if len(in.Captions) != len(in.URLs) || len(in.GalleryIDs) != len(in.URLs) {
		return Post{}, fmt.Errorf("parallel sequences disagree: %d urls, %d captions, %d gallery ids",
			len(in.URLs), len(in.Captions), len(in.GalleryIDs))
	}

	var blocks []string
	for start := 0; start < len(in.URLs); {
		end := start
		for end < len(in.URLs) && in.GalleryIDs[end] == in.GalleryIDs[start] {
			end++
		}
		block := strings.Join(in.URLs[start:end], "\n")
		if caption := galleryCaption(in.Captions[start:end]); caption != "" {
			block += "\n\n" + caption
		}
		blocks = append(blocks, block)
		start = end
	}

	content := strings.Join(blocks, "\n\n\n")
	if desc := strings.TrimSpace(in.Description); desc != "" {
		content += "\n\n" + desc
	}
	if in.ShowSources {
		if sourceBlock := formatSources(in.Sources); sourceBlock != "" {
			content += "\n\n" + sourceBlock
		}
	}
	content = norm.NFC.String(content)

	hashtags := ExtractHashtags(content)
	tags := make([][]string, 0, len(hashtags)+1)
	if in.NSFW || containsTag(hashtags, "nsfw") {
		tags = append(tags, []string{"content-warning", "nsfw"})
	}
	for _, tag := range hashtags {
		tags = append(tags, []string{"t", tag})
	}

	return Post{Content: content, Tags: tags, Hashtags: hashtags}, nil
}

// ExtractHashtags returns the distinct hashtags of text in order of first
// appearance, lowercased for case-insensitive dedup.
func ExtractHashtags(text string) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, match := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		tag := strings.ToLower(match[1])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// galleryCaption picks the caption slot of one gallery. Exactly one item
// carries it (the last, by convention), but any single non-empty slot is
// accepted.
func galleryCaption(captions []string) string {
	for i := len(captions) - 1; i >= 0; i-- {
		if caption := strings.TrimSpace(captions[i]); caption != "" {
			return caption
		}
	}
	return ""
}

func formatSources(sources []string) string {
	var kept []string
	for _, source := range sources {
		if source = strings.TrimSpace(source); source != "" {
			kept = append(kept, source)
		}
	}
	switch len(kept) {
	case 0:
		return ""
	case 1:
		return "Source: " + kept[0]
	default:
		lines := make([]string, 0, len(kept)+1)
		lines = append(lines, "Sources:")
		for _, source := range kept {
			lines = append(lines, "- "+source)
		}
		return strings.Join(lines, "\n")
	}
}

func containsTag(tags []string, target string) bool {
	for _, tag := range tags {
		if tag == target {
			return true
		}
	}
	return false
}
