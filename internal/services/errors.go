package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for pipeline failure classification. Every fatal error
// surfaced by the pipeline wraps exactly one of these.
var (
	ErrAcquisitionExhausted = errors.New("acquisition exhausted")
	ErrDuplicateDetected    = errors.New("duplicate detected")
	ErrUnsupportedCodec     = errors.New("unsupported codec")
	ErrUploadExhausted      = errors.New("upload exhausted")
	ErrPublishRejected      = errors.New("publish rejected")
	ErrInvalidInput         = errors.New("invalid input")
	ErrExternalTool         = errors.New("external tool error")
	ErrConfiguration        = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether the error should terminate the run immediately
// rather than be retried against the next candidate in a fallback ladder.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDuplicateDetected) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrConfiguration)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
