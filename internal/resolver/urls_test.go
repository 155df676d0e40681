package resolver

import "testing"

func TestIsPhotoURL(t *testing.T) {
	cases := map[string]bool{
		"https://www.facebook.com/photo/?fbid=123&set=a.456": true,
		"https://www.facebook.com/user/photos/a.456/123":     true,
		"https://example.com/page?fbid=99":                   true,
		"https://www.youtube.com/watch?v=abc":                false,
		"https://example.com/video/123":                      false,
	}
	for rawURL, want := range cases {
		if got := IsPhotoURL(rawURL); got != want {
			t.Errorf("IsPhotoURL(%q) = %v, want %v", rawURL, got, want)
		}
	}
}

func TestIsMobileShareURL(t *testing.T) {
	cases := map[string]bool{
		"https://www.facebook.com/share/p/AbCdEf/": true,
		"https://m.facebook.com/share/v/XyZ/":      true,
		"https://www.facebook.com/photo/?fbid=1":   false,
		"https://example.com/share/p/AbCdEf/":      false,
	}
	for rawURL, want := range cases {
		if got := IsMobileShareURL(rawURL); got != want {
			t.Errorf("IsMobileShareURL(%q) = %v, want %v", rawURL, got, want)
		}
	}
}

func TestStripSetParam(t *testing.T) {
	stripped, changed := StripSetParam("https://www.facebook.com/photo/?fbid=123&set=a.456")
	if !changed {
		t.Fatal("expected set parameter removal")
	}
	if HasSetParam(stripped) {
		t.Fatalf("set parameter survived: %q", stripped)
	}
	if TargetID(stripped) != "123" {
		t.Fatalf("fbid must survive stripping, got %q", stripped)
	}

	same, changed := StripSetParam("https://example.com/page")
	if changed || same != "https://example.com/page" {
		t.Fatalf("unexpected change for URL without set: %q", same)
	}
}

func TestStripSizeParams(t *testing.T) {
	stripped := StripSizeParams("https://cdn.example/img.jpg?stp=dst-jpg_s640x640&w=640&oh=abc")
	if stripped != "https://cdn.example/img.jpg?oh=abc" {
		t.Fatalf("unexpected stripped URL %q", stripped)
	}
	unchanged := StripSizeParams("https://cdn.example/img.jpg?oh=abc")
	if unchanged != "https://cdn.example/img.jpg?oh=abc" {
		t.Fatalf("URL without size params must pass through, got %q", unchanged)
	}
}

func TestPositionalNamePattern(t *testing.T) {
	cases := map[string]bool{
		"1.jpg":     true,
		"42.png":    true,
		"photo.jpg": false,
		"1.jpg.tmp": false,
		"1":         false,
	}
	for name, want := range cases {
		if got := positionalNamePattern.MatchString(name); got != want {
			t.Errorf("positional match %q = %v, want %v", name, got, want)
		}
	}
}
