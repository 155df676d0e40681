package publish

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"nostrcast/internal/compose"
	"nostrcast/internal/logging"
	"nostrcast/internal/services"
	"nostrcast/internal/services/nak"
)

// Options controls signing and broadcast.
type Options struct {
	Relays        []string
	PowDifficulty int
	SecretKey     string
	SendToRelays  bool
}

// Receipt reports the outcome of a publish.
type Receipt struct {
	EventID string
	Nevent  string
	// Broadcast is false for sign-only runs.
	Broadcast bool
}

// Publisher signs the composed post and broadcasts it through the signer.
type Publisher struct {
	signer nak.Signer
	opts   Options
	logger *slog.Logger
}

// NewPublisher constructs a publisher.
func NewPublisher(signer nak.Signer, opts Options, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{
		signer: signer,
		opts:   opts,
		logger: logger.With(logging.FieldComponent, "publish"),
	}
}

// Publish signs post and broadcasts it when relay sending is enabled. The
// signer's exit status is authoritative; any failure is a rejected publish.
func (p *Publisher) Publish(ctx context.Context, post compose.Post) (Receipt, error) {
	if strings.TrimSpace(p.opts.SecretKey) == "" {
		return Receipt{}, services.Wrap(services.ErrInvalidInput, "publish", "publish", "secret key missing", nil)
	}

	relays := p.opts.Relays
	if !p.opts.SendToRelays {
		relays = nil
	}

	request := nak.Request{
		Content:       post.Content,
		Tags:          post.Tags,
		SecretKey:     p.opts.SecretKey,
		PowDifficulty: p.opts.PowDifficulty,
		Relays:        relays,
	}
	eventID, err := p.signer.Publish(ctx, request)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrPublishRejected, "publish", "publish", "signer rejected event", err)
	}

	receipt := Receipt{EventID: eventID, Broadcast: len(relays) > 0}
	nevent, err := p.signer.EncodeNevent(ctx, eventID)
	if err != nil {
		// The event is already out; a missing nevent only degrades reporting.
		p.logger.Warn("nevent encoding failed", "event_id", eventID, "error", err)
	} else {
		receipt.Nevent = nevent
	}

	p.logger.Info("event published", "event_id", eventID, "broadcast", receipt.Broadcast, "relays", len(relays))
	return receipt, nil
}

// LoadSecretKey reads a signing key from path, trimmed of whitespace.
func LoadSecretKey(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", services.Wrap(services.ErrInvalidInput, "publish", "load_key", "secret key file not configured", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidInput, "publish", "load_key", "read secret key file", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", services.Wrap(services.ErrInvalidInput, "publish", "load_key", "secret key file is empty", errors.New(path))
	}
	return key, nil
}
