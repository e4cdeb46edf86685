package service

import (
	"fmt"

	"github.com/timmy/tabextract/internal/domain"
)

const (
	// DefaultMaxFiles is the per-job ceiling on accepted files.
	DefaultMaxFiles = 20
	// DefaultMaxFileSize is the per-file byte ceiling (15 MiB).
	DefaultMaxFileSize int64 = 15 * 1024 * 1024
)

// Validator filters a raw file selection down to the accepted set.
type Validator struct {
	maxFiles    int
	maxFileSize int64
}

// NewValidator creates a validator. Non-positive limits fall back to the defaults.
func NewValidator(maxFiles int, maxFileSize int64) *Validator {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Validator{maxFiles: maxFiles, maxFileSize: maxFileSize}
}

// Validate keeps the candidates whose extension is on the allow-list and
// enforces the count and size ceilings on that filtered set.
// Parameters:
//   - candidates: raw file selection in caller order.
//
// Returns:
//   - []domain.InputUnit: accepted units in the same order, media kind set.
//   - error: *TooManyInputsError, *OversizedInputError or ErrNoUnitsProvided.
func (v *Validator) Validate(candidates []domain.InputUnit) ([]domain.InputUnit, error) {
	accepted := make([]domain.InputUnit, 0, len(candidates))
	for _, c := range candidates {
		kind, ok := domain.MediaKindFromName(c.Name)
		if !ok {
			continue
		}
		c.Kind = kind
		accepted = append(accepted, c)
	}

	if len(accepted) > v.maxFiles {
		return nil, &domain.TooManyInputsError{Count: len(accepted), Max: v.maxFiles}
	}

	var oversized []string
	for _, u := range accepted {
		if u.Size > v.maxFileSize {
			oversized = append(oversized, u.Name)
		}
	}
	if len(oversized) > 0 {
		return nil, &domain.OversizedInputError{Names: oversized, MaxBytes: v.maxFileSize}
	}

	if len(accepted) == 0 {
		return nil, domain.ErrNoUnitsProvided
	}
	return accepted, nil
}

// FormatBytes renders a byte count the way the upload list shows it.
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d Bytes", n)
	}
	return trimZeros(fmt.Sprintf("%.2f", size)) + " " + units[i]
}

func trimZeros(s string) string {
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
