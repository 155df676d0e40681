package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"nostrcast/internal/fallback"
	"nostrcast/internal/logging"
	"nostrcast/internal/services"
	"nostrcast/internal/services/nak"
)

// UploadedFile records where one local file landed.
type UploadedFile struct {
	LocalPath string
	URL       string
	MIMEType  string
	Size      int64
}

// Sink is one upload endpoint in the chain.
type Sink struct {
	Kind     string // "filedrop" or "blossom"
	Endpoint string
}

// Options configures the chain.
type Options struct {
	FiledropURL    string
	BlossomServers []string
	SecretKey      string
	RequestTimeout time.Duration
}

// Chain uploads a run's files through an ordered list of sinks. A sink
// must take every file or none; partial results are discarded and the next
// sink starts over from the first file.
type Chain struct {
	opts       Options
	signer     nak.Signer
	httpClient *http.Client
	logger     *slog.Logger
}

// NewChain constructs the sink chain. signer handles blossom uploads.
func NewChain(opts Options, signer nak.Signer, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Chain{
		opts:       opts,
		signer:     signer,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(logging.FieldComponent, "upload"),
	}
}

// Sinks returns the configured sinks in attempt order.
func (c *Chain) Sinks() []Sink {
	var sinks []Sink
	if c.opts.FiledropURL != "" {
		sinks = append(sinks, Sink{Kind: "filedrop", Endpoint: c.opts.FiledropURL})
	}
	for _, server := range c.opts.BlossomServers {
		sinks = append(sinks, Sink{Kind: "blossom", Endpoint: server})
	}
	return sinks
}

// UploadAll pushes every file through the first sink that accepts all of
// them. No sink is retried within a run.
func (c *Chain) UploadAll(ctx context.Context, files []string) ([]UploadedFile, error) {
	if len(files) == 0 {
		return nil, services.Wrap(services.ErrInvalidInput, "upload", "upload_all", "no files to upload", nil)
	}
	sinks := c.Sinks()
	if len(sinks) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "upload_all", "no upload sinks configured", nil)
	}

	uploaded, err := fallback.TryInOrder(ctx, sinks, func(ctx context.Context, sink Sink) ([]UploadedFile, error) {
		c.logger.Info("trying sink", "kind", sink.Kind, "endpoint", sink.Endpoint, "files", len(files))
		results := make([]UploadedFile, 0, len(files))
		for _, file := range files {
			result, uploadErr := c.uploadOne(ctx, sink, file)
			if uploadErr != nil {
				// Discard this sink's partial results entirely.
				return nil, fmt.Errorf("%s %s: file %s: %w", sink.Kind, sink.Endpoint, filepath.Base(file), uploadErr)
			}
			results = append(results, result)
		}
		return results, nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrUploadExhausted, "upload", "upload_all", "every sink failed", err)
	}
	return uploaded, nil
}

func (c *Chain) uploadOne(ctx context.Context, sink Sink, file string) (UploadedFile, error) {
	switch sink.Kind {
	case "filedrop":
		return c.filedropUpload(ctx, sink.Endpoint, file)
	case "blossom":
		return c.blossomUpload(ctx, sink.Endpoint, file)
	default:
		return UploadedFile{}, fmt.Errorf("unknown sink kind %q", sink.Kind)
	}
}

func (c *Chain) blossomUpload(ctx context.Context, server, file string) (UploadedFile, error) {
	descriptor, err := c.signer.BlossomUpload(ctx, file, server, c.opts.SecretKey)
	if err != nil {
		return UploadedFile{}, err
	}
	return UploadedFile{
		LocalPath: file,
		URL:       descriptor.URL,
		MIMEType:  descriptor.Type,
		Size:      descriptor.Size,
	}, nil
}

// filedropUpload posts the file as multipart form data and takes the
// response body as the hosted URL.
func (c *Chain) filedropUpload(ctx context.Context, endpoint, file string) (UploadedFile, error) {
	info, err := os.Stat(file)
	if err != nil {
		return UploadedFile{}, err
	}
	mtype, err := mimetype.DetectFile(file)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("detect content type: %w", err)
	}

	source, err := os.Open(file)
	if err != nil {
		return UploadedFile{}, err
	}
	defer source.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(file))
	if err != nil {
		return UploadedFile{}, err
	}
	if _, err := io.Copy(part, source); err != nil {
		return UploadedFile{}, err
	}
	if err := writer.Close(); err != nil {
		return UploadedFile{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return UploadedFile{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadedFile{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return UploadedFile{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return UploadedFile{}, fmt.Errorf("filedrop returned status %d: %s", resp.StatusCode, firstLine(string(payload)))
	}

	hostedURL := strings.TrimSpace(string(payload))
	if !strings.HasPrefix(hostedURL, "http://") && !strings.HasPrefix(hostedURL, "https://") {
		return UploadedFile{}, fmt.Errorf("filedrop response is not a URL: %q", firstLine(hostedURL))
	}
	return UploadedFile{
		LocalPath: file,
		URL:       hostedURL,
		MIMEType:  mtype.String(),
		Size:      info.Size(),
	}, nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
