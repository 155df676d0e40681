package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
)

const maxHTMLBytes = 4 << 20

// PagePreview is what the open-graph fallback extracted from a page.
type PagePreview struct {
	ImageURL    string
	Description string
}

// FetchPreview downloads the page at rawURL and extracts its preview image
// and description from open-graph or twitter meta tags.
func FetchPreview(ctx context.Context, client *http.Client, rawURL string) (PagePreview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return PagePreview{}, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return PagePreview{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PagePreview{}, fmt.Errorf("page fetch returned status %d", resp.StatusCode)
	}

	html, err := io.ReadAll(io.LimitReader(resp.Body, maxHTMLBytes))
	if err != nil {
		return PagePreview{}, err
	}

	preview := ParsePreview(string(html))
	if preview.ImageURL == "" {
		return PagePreview{}, errors.New("page has no og:image or twitter:image")
	}

	// Resolve relative image URLs against the final page URL.
	if base := resp.Request.URL; base != nil {
		if imageURL, parseErr := url.Parse(preview.ImageURL); parseErr == nil {
			preview.ImageURL = base.ResolveReference(imageURL).String()
		}
	}
	preview.ImageURL = StripSizeParams(preview.ImageURL)
	return preview, nil
}

// ParsePreview extracts preview metadata from raw HTML. Open-graph tags
// win; twitter card tags fill the gaps.
func ParsePreview(html string) PagePreview {
	var preview PagePreview

	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(strings.NewReader(html)); err == nil {
		if len(og.Images) > 0 && og.Images[0] != nil {
			preview.ImageURL = og.Images[0].URL
		}
		preview.Description = og.Description
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return preview
	}
	if preview.ImageURL == "" {
		preview.ImageURL = metaContent(doc, "meta[name='twitter:image']", "meta[property='twitter:image']")
	}
	if preview.Description == "" {
		preview.Description = metaContent(doc, "meta[name='twitter:description']", "meta[property='twitter:description']")
	}
	return preview
}

// DownloadImage fetches imageURL into destDir and returns the local path.
func DownloadImage(ctx context.Context, client *http.Client, imageURL, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	name := imageFileName(imageURL)
	path := filepath.Join(destDir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	written, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err != nil {
		os.Remove(path)
		return "", err
	}
	if closeErr != nil {
		os.Remove(path)
		return "", closeErr
	}
	if written == 0 {
		os.Remove(path)
		return "", errors.New("image download was empty")
	}
	return path, nil
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && content != "" {
			return content
		}
	}
	return ""
}

func imageFileName(imageURL string) string {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return "preview-image"
	}
	base := filepath.Base(parsed.Path)
	if base == "" || base == "." || base == "/" {
		return "preview-image"
	}
	return base
}
