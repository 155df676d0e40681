package resolver

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

var positionalNamePattern = regexp.MustCompile(`^(\d+)\.[A-Za-z0-9]+$`)

// IsPhotoURL reports whether the URL is a known photo-page shape that a
// video downloader will never handle.
func IsPhotoURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	if strings.Contains(path, "/photo") {
		return true
	}
	query := parsed.Query()
	return query.Get("fbid") != "" || query.Get("set") != ""
}

// IsMobileShareURL reports whether the URL is a compact share link that
// redirects to the canonical page.
func IsMobileShareURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Host)
	if !strings.Contains(host, "facebook.com") && host != "fb.me" {
		return false
	}
	return strings.HasPrefix(parsed.Path, "/share/")
}

// HasSetParam reports whether the URL carries a gallery set id.
func HasSetParam(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return parsed.Query().Get("set") != ""
}

// StripSetParam removes the set query parameter, returning the simplified
// URL and whether anything changed.
func StripSetParam(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, false
	}
	query := parsed.Query()
	if query.Get("set") == "" {
		return rawURL, false
	}
	query.Del("set")
	parsed.RawQuery = query.Encode()
	return parsed.String(), true
}

// TargetID extracts the numeric media id (fbid) the URL points at inside a
// multi-image set, if any.
func TargetID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("fbid")
}

// Query parameters CDNs use to serve scaled-down variants.
var sizeLimitingParams = map[string]bool{
	"stp":    true,
	"w":      true,
	"h":      true,
	"width":  true,
	"height": true,
	"s":      true,
	"size":   true,
	"resize": true,
}

// StripSizeParams removes size-limiting query parameters so the full
// resolution variant is fetched.
func StripSizeParams(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	changed := false
	for key := range query {
		if sizeLimitingParams[strings.ToLower(key)] {
			query.Del(key)
			changed = true
		}
	}
	if !changed {
		return rawURL
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// ResolveShareURL follows redirects from a share link to the canonical
// page URL.
func ResolveShareURL(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	resp.Body.Close()
	return resp.Request.URL.String(), nil
}

const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
