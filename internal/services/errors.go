package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks startup configuration failures. Fatal.
	ErrConfiguration = errors.New("configuration error")
	// ErrConnectivity marks failures reaching the FTP server. Retried next cycle.
	ErrConnectivity = errors.New("connectivity error")
	// ErrTransfer marks incomplete or corrupted downloads. Retryable.
	ErrTransfer = errors.New("transfer error")
	// ErrEncoding marks normalization failures. Recoverable via fallback policy.
	ErrEncoding = errors.New("encoding error")
	// ErrPayloadTooLarge marks artifacts exceeding the upload size limit.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrTransient marks publish failures where a retry may succeed.
	ErrTransient = errors.New("transient failure")
	// ErrPermanent marks publish rejections a retry will not change.
	ErrPermanent = errors.New("permanent failure")
	// ErrValidation marks inputs the pipeline cannot act on.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether the bridge loop should return the item to
// pending for another attempt rather than failing it outright.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrConnectivity),
		errors.Is(err, ErrTransfer),
		errors.Is(err, ErrTransient):
		return true
	default:
		return false
	}
}

// IsFatal reports whether the error must terminate the process. Only
// configuration failures at startup qualify.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
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
