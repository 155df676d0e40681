package history

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nostrcast/internal/services"
)

func TestExistsExactMatchOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.txt")
	if err := os.WriteFile(path, []byte("https://example.com/post/123\nabcdef\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ledger := Open(path, true)

	hit, err := ledger.Exists("https://example.com/post/123")
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("expected exact token to match")
	}

	// A token that is merely a substring of a recorded line must not match.
	hit, err = ledger.Exists("abc")
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Fatal("substring must not count as membership")
	}
}

func TestExistsMissingFile(t *testing.T) {
	ledger := Open(filepath.Join(t.TempDir(), "none.txt"), true)
	hit, err := ledger.Exists("anything")
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Fatal("missing ledger file should report no duplicates")
	}
}

func TestCommitThenExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	ledger := Open(path, true)

	tokens := []string{"tok-one", "  tok-two  ", ""}
	if err := ledger.Commit(tokens); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	for _, token := range []string{"tok-one", "tok-two"} {
		hit, err := ledger.Exists(token)
		if err != nil {
			t.Fatal(err)
		}
		if !hit {
			t.Fatalf("expected committed token %q to exist", token)
		}
	}
}

func TestDisabledLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	if err := os.WriteFile(path, []byte("known-token\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ledger := Open(path, false)

	hit, err := ledger.Exists("known-token")
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Fatal("disabled ledger must report no duplicates")
	}

	if err := ledger.Commit([]string{"new-token"}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "known-token\n" {
		t.Fatalf("disabled ledger must not commit, file now %q", data)
	}
}

func TestCheckReportsDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	ledger := Open(path, true)
	if err := ledger.Commit([]string{"dup"}); err != nil {
		t.Fatal(err)
	}
	err := ledger.Check("dup")
	if !errors.Is(err, services.ErrDuplicateDetected) {
		t.Fatalf("expected ErrDuplicateDetected, got %v", err)
	}
	if err := ledger.Check("fresh"); err != nil {
		t.Fatalf("fresh token should pass, got %v", err)
	}
}

func TestURLToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://example.com/a/", "https://example.com/a"},
		{"https://example.com/a#frag", "https://example.com/a"},
		{"  https://example.com/a  ", "https://example.com/a"},
		{"https://example.com/a?id=1", "https://example.com/a?id=1"},
	}
	for _, tc := range cases {
		if got := URLToken(tc.in); got != tc.want {
			t.Fatalf("URLToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSkipPrecheck(t *testing.T) {
	cases := []struct {
		name string
		skip bool
	}{
		{"1.jpg", true},
		{"42.png", true},
		{"123.jpg", false},
		{"photo.jpg", false},
		{"7a.jpg", false},
		{"video.mp4", false},
	}
	for _, tc := range cases {
		if got := SkipPrecheck(tc.name); got != tc.skip {
			t.Fatalf("SkipPrecheck(%q) = %v, want %v", tc.name, got, tc.skip)
		}
	}
}

func TestListReturnsTokensInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	ledger := Open(path, true)

	if tokens, err := ledger.List(); err != nil || tokens != nil {
		t.Fatalf("missing file: tokens=%v err=%v", tokens, err)
	}

	if err := ledger.Commit([]string{"first", "second", "third"}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	tokens, err := ledger.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tokens) != 3 || tokens[0] != "first" || tokens[2] != "third" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
}
