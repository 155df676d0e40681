package compose

import (
	"strings"
	"testing"
)

func build(t *testing.T, in Input) Post {
	t.Helper()
	post, err := Build(in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return post
}

func TestBuildSingleItemNoCaption(t *testing.T) {
	post := build(t, Input{URLs: []string{"u1"}, Captions: []string{""}, GalleryIDs: []int{0}})
	if post.Content != "u1" {
		t.Fatalf("expected bare url, got %q", post.Content)
	}
}

func TestBuildSingleItemWithCaption(t *testing.T) {
	post := build(t, Input{URLs: []string{"u1"}, Captions: []string{"capA"}, GalleryIDs: []int{0}})
	if post.Content != "u1\n\ncapA" {
		t.Fatalf("expected caption after blank line, got %q", post.Content)
	}
}

func TestBuildGalleryAggregatedCaption(t *testing.T) {
	post := build(t, Input{
		URLs:       []string{"u1", "u2", "u3"},
		Captions:   []string{"", "", "g"},
		GalleryIDs: []int{0, 0, 0},
	})
	if post.Content != "u1\nu2\nu3\n\ng" {
		t.Fatalf("expected back-to-back urls then caption, got %q", post.Content)
	}
}

func TestBuildTwoGalleriesSeparation(t *testing.T) {
	post := build(t, Input{
		URLs:       []string{"u1", "u2"},
		Captions:   []string{"capA", ""},
		GalleryIDs: []int{0, 1},
	})
	if post.Content != "u1\n\ncapA\n\n\nu2" {
		t.Fatalf("expected two blank lines between galleries, got %q", post.Content)
	}
}

func TestBuildUncaptionedGalleriesStillSeparated(t *testing.T) {
	post := build(t, Input{
		URLs:       []string{"u1", "u2"},
		Captions:   []string{"", ""},
		GalleryIDs: []int{0, 1},
	})
	if post.Content != "u1\n\n\nu2" {
		t.Fatalf("expected gallery separation without captions, got %q", post.Content)
	}
}

func TestBuildDescriptionAppended(t *testing.T) {
	post := build(t, Input{
		URLs:        []string{"u1"},
		Captions:    []string{""},
		GalleryIDs:  []int{0},
		Description: "hello #World",
	})
	if post.Content != "u1\n\nhello #World" {
		t.Fatalf("unexpected content %q", post.Content)
	}
	if len(post.Hashtags) != 1 || post.Hashtags[0] != "world" {
		t.Fatalf("unexpected hashtags %v", post.Hashtags)
	}
}

func TestBuildSingleSource(t *testing.T) {
	post := build(t, Input{
		URLs:        []string{"u1"},
		Captions:    []string{""},
		GalleryIDs:  []int{0},
		Sources:     []string{"s1"},
		ShowSources: true,
	})
	if !strings.HasSuffix(post.Content, "Source: s1") {
		t.Fatalf("expected single-source suffix, got %q", post.Content)
	}
}

func TestBuildMultipleSources(t *testing.T) {
	post := build(t, Input{
		URLs:        []string{"u1", "u2"},
		Captions:    []string{"", ""},
		GalleryIDs:  []int{0, 1},
		Sources:     []string{"s1", "s2"},
		ShowSources: true,
	})
	if !strings.HasSuffix(post.Content, "Sources:\n- s1\n- s2") {
		t.Fatalf("expected source list suffix, got %q", post.Content)
	}
}

func TestBuildSourcesHiddenByDefault(t *testing.T) {
	post := build(t, Input{
		URLs:       []string{"u1"},
		Captions:   []string{""},
		GalleryIDs: []int{0},
		Sources:    []string{"s1"},
	})
	if strings.Contains(post.Content, "s1") {
		t.Fatalf("sources must not appear when display is off, got %q", post.Content)
	}
}

func TestBuildNSFWTagging(t *testing.T) {
	post := build(t, Input{
		URLs:       []string{"u1"},
		Captions:   []string{""},
		GalleryIDs: []int{0},
		NSFW:       true,
	})
	if len(post.Tags) != 1 || post.Tags[0][0] != "content-warning" {
		t.Fatalf("expected content-warning tag, got %v", post.Tags)
	}

	post = build(t, Input{
		URLs:        []string{"u1"},
		Captions:    []string{""},
		GalleryIDs:  []int{0},
		Description: "late night #NSFW set",
	})
	found := false
	for _, tag := range post.Tags {
		if tag[0] == "content-warning" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected content-warning from #nsfw hashtag, got %v", post.Tags)
	}
}

func TestBuildRejectsMismatchedSequences(t *testing.T) {
	if _, err := Build(Input{URLs: []string{"u1"}, Captions: nil, GalleryIDs: []int{0}}); err == nil {
		t.Fatal("expected error for mismatched captions")
	}
	if _, err := Build(Input{}); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestExtractHashtagsDedup(t *testing.T) {
	tags := ExtractHashtags("#Art then #art again and #ART plus #photo")
	if len(tags) != 2 {
		t.Fatalf("expected 2 distinct tags, got %v", tags)
	}
	if tags[0] != "art" || tags[1] != "photo" {
		t.Fatalf("unexpected order %v", tags)
	}
}
