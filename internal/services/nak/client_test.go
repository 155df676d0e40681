package nak

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
)

func TestParseEventIDFromJSON(t *testing.T) {
	output := `{"kind":1,"id":"ABCDEF0123456789abcdef0123456789abcdef0123456789abcdef0123456789","content":"hi","tags":[]}`
	got := ParseEventID(output)
	want := "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"
	if got != want {
		t.Fatalf("expected %s, got %q", want, got)
	}
}

func TestParseEventIDIgnoresURLHashes(t *testing.T) {
	output := "uploaded https://files.example/1111111111111111111111111111111111111111111111111111111111111111.mp4\n" +
		"published 2222222222222222222222222222222222222222222222222222222222222222"
	got := ParseEventID(output)
	if got != "2222222222222222222222222222222222222222222222222222222222222222" {
		t.Fatalf("expected bare id, got %q", got)
	}
}

func TestParseEventIDEmpty(t *testing.T) {
	if got := ParseEventID("nothing useful here"); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

func TestParseBlobDescriptor(t *testing.T) {
	output := "uploading...\n" +
		`{"url":"https://blossom.example/aa.png","sha256":"aa","size":12,"type":"image/png"}`
	descriptor, err := parseBlobDescriptor(output)
	if err != nil {
		t.Fatalf("parseBlobDescriptor: %v", err)
	}
	if descriptor.URL != "https://blossom.example/aa.png" {
		t.Fatalf("unexpected url %q", descriptor.URL)
	}
	if descriptor.Size != 12 || descriptor.Type != "image/png" {
		t.Fatalf("unexpected descriptor %+v", descriptor)
	}
}

func TestParseBlobDescriptorMissing(t *testing.T) {
	if _, err := parseBlobDescriptor("error: unauthorized"); err == nil {
		t.Fatal("expected error without descriptor JSON")
	}
}

func TestPublishValidatesArguments(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.Publish(context.Background(), Request{SecretKey: "sec"}); err == nil {
		t.Fatal("expected error for empty content")
	}
	if _, err := cli.Publish(context.Background(), Request{Content: "hi"}); err == nil {
		t.Fatal("expected error for missing secret key")
	}
}

func TestPublishSuccess(t *testing.T) {
	eventJSON := `{"id":"3333333333333333333333333333333333333333333333333333333333333333","kind":1}`
	setHelperCommand(t, "stdout", eventJSON)

	cli := NewCLI()
	var captured []string
	captureArgs(t, &captured)
	req := Request{
		Content:       "hello world",
		Tags:          [][]string{{"t", "photography"}, {"content-warning", "nsfw"}},
		SecretKey:     "nsec1example",
		PowDifficulty: 16,
		Relays:        []string{"wss://relay.example"},
	}
	id, err := cli.Publish(context.Background(), req)
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if id != "3333333333333333333333333333333333333333333333333333333333333333" {
		t.Fatalf("unexpected event id %q", id)
	}
	if idx := findArg(captured, "--pow"); idx == -1 || captured[idx+1] != "16" {
		t.Fatalf("expected pow argument in %v", captured)
	}
	if idx := findArg(captured, "-t"); idx == -1 || captured[idx+1] != "t=photography" {
		t.Fatalf("expected hashtag tag in %v", captured)
	}
	if captured[len(captured)-1] != "wss://relay.example" {
		t.Fatalf("expected relay as trailing argument in %v", captured)
	}
}

func TestPublishRejected(t *testing.T) {
	setHelperCommand(t, "failure", "")
	cli := NewCLI()
	if _, err := cli.Publish(context.Background(), Request{Content: "hi", SecretKey: "sec"}); err == nil {
		t.Fatal("expected error from rejected publish")
	}
}

func TestEncodeNevent(t *testing.T) {
	setHelperCommand(t, "stdout", "nevent1qqexample\n")
	cli := NewCLI()
	id := "4444444444444444444444444444444444444444444444444444444444444444"
	encoded, err := cli.EncodeNevent(context.Background(), id)
	if err != nil {
		t.Fatalf("EncodeNevent returned error: %v", err)
	}
	if encoded != "nevent1qqexample" {
		t.Fatalf("unexpected nevent %q", encoded)
	}

	if _, err := cli.EncodeNevent(context.Background(), "short"); err == nil {
		t.Fatal("expected error for malformed event id")
	}
}

func TestBlossomUpload(t *testing.T) {
	setHelperCommand(t, "stdout", `{"url":"https://blossom.example/bb.mp4","sha256":"bb","size":9,"type":"video/mp4"}`)
	cli := NewCLI()
	descriptor, err := cli.BlossomUpload(context.Background(), "/tmp/bb.mp4", "https://blossom.example", "sec")
	if err != nil {
		t.Fatalf("BlossomUpload returned error: %v", err)
	}
	if descriptor.URL != "https://blossom.example/bb.mp4" {
		t.Fatalf("unexpected url %q", descriptor.URL)
	}
}

func TestBlossomUploadFailure(t *testing.T) {
	setHelperCommand(t, "failure", "")
	cli := NewCLI()
	if _, err := cli.BlossomUpload(context.Background(), "/tmp/bb.mp4", "https://blossom.example", "sec"); err == nil {
		t.Fatal("expected error from failed upload")
	}
}

func captureArgs(t *testing.T, captured *[]string) {
	t.Helper()
	previous := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		*captured = append([]string(nil), args...)
		return previous(ctx, name, args...)
	}
	t.Cleanup(func() {
		commandContext = previous
	})
}

func setHelperCommand(t *testing.T, mode, stdout string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("NAK_HELPER_MODE=%s", mode),
			fmt.Sprintf("NAK_HELPER_STDOUT=%s", stdout),
		)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("NAK_HELPER_MODE") {
	case "stdout":
		fmt.Fprint(os.Stdout, os.Getenv("NAK_HELPER_STDOUT"))
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "connection refused")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func findArg(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}
