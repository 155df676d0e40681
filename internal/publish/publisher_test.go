package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nostrcast/internal/compose"
	"nostrcast/internal/services"
	"nostrcast/internal/services/nak"
)

type fakeSigner struct {
	lastRequest nak.Request
	publishErr  error
	neventErr   error
}

func (f *fakeSigner) Publish(_ context.Context, req nak.Request) (string, error) {
	f.lastRequest = req
	if f.publishErr != nil {
		return "", f.publishErr
	}
	return "5555555555555555555555555555555555555555555555555555555555555555", nil
}

func (f *fakeSigner) EncodeNevent(_ context.Context, eventID string) (string, error) {
	if f.neventErr != nil {
		return "", f.neventErr
	}
	return "nevent1" + eventID[:8], nil
}

func (f *fakeSigner) BlossomUpload(context.Context, string, string, string) (nak.BlobDescriptor, error) {
	return nak.BlobDescriptor{}, errors.New("not used")
}

func TestPublishBroadcasts(t *testing.T) {
	signer := &fakeSigner{}
	publisher := NewPublisher(signer, Options{
		Relays:        []string{"wss://relay.example"},
		PowDifficulty: 8,
		SecretKey:     "sec",
		SendToRelays:  true,
	}, nil)

	receipt, err := publisher.Publish(context.Background(), compose.Post{Content: "hello"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !receipt.Broadcast {
		t.Fatal("expected broadcast receipt")
	}
	if receipt.Nevent == "" {
		t.Fatal("expected nevent in receipt")
	}
	if len(signer.lastRequest.Relays) != 1 {
		t.Fatalf("expected relays passed through, got %v", signer.lastRequest.Relays)
	}
	if signer.lastRequest.PowDifficulty != 8 {
		t.Fatalf("expected pow difficulty, got %d", signer.lastRequest.PowDifficulty)
	}
}

func TestPublishSignOnlyWhenRelaySendingDisabled(t *testing.T) {
	signer := &fakeSigner{}
	publisher := NewPublisher(signer, Options{
		Relays:       []string{"wss://relay.example"},
		SecretKey:    "sec",
		SendToRelays: false,
	}, nil)

	receipt, err := publisher.Publish(context.Background(), compose.Post{Content: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if receipt.Broadcast {
		t.Fatal("expected sign-only receipt")
	}
	if len(signer.lastRequest.Relays) != 0 {
		t.Fatalf("expected no relays, got %v", signer.lastRequest.Relays)
	}
}

func TestPublishRejected(t *testing.T) {
	signer := &fakeSigner{publishErr: errors.New("pow too low")}
	publisher := NewPublisher(signer, Options{SecretKey: "sec"}, nil)
	_, err := publisher.Publish(context.Background(), compose.Post{Content: "hello"})
	if !errors.Is(err, services.ErrPublishRejected) {
		t.Fatalf("expected publish-rejected error, got %v", err)
	}
}

func TestPublishNeventFailureIsNotFatal(t *testing.T) {
	signer := &fakeSigner{neventErr: errors.New("encode failed")}
	publisher := NewPublisher(signer, Options{SecretKey: "sec"}, nil)
	receipt, err := publisher.Publish(context.Background(), compose.Post{Content: "hello"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if receipt.EventID == "" || receipt.Nevent != "" {
		t.Fatalf("expected event id without nevent, got %+v", receipt)
	}
}

func TestPublishMissingKey(t *testing.T) {
	publisher := NewPublisher(&fakeSigner{}, Options{}, nil)
	_, err := publisher.Publish(context.Background(), compose.Post{Content: "hello"})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid-input error, got %v", err)
	}
}

func TestLoadSecretKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key")
	if err := os.WriteFile(path, []byte("  nsec1abc\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	key, err := LoadSecretKey(path)
	if err != nil {
		t.Fatalf("LoadSecretKey: %v", err)
	}
	if key != "nsec1abc" {
		t.Fatalf("expected trimmed key, got %q", key)
	}
}

func TestLoadSecretKeyErrors(t *testing.T) {
	if _, err := LoadSecretKey(""); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid-input for empty path, got %v", err)
	}
	if _, err := LoadSecretKey("/nonexistent/key"); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid-input for missing file, got %v", err)
	}

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("  \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSecretKey(empty); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid-input for empty key, got %v", err)
	}
}
