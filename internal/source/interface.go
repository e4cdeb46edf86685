package source

import (
	"context"
	"fmt"
	"os"

	"github.com/timmy/tabextract/internal/domain"
)

// Source yields candidate input units for a job.
type Source interface {
	// ID returns a stable identifier for logs.
	ID() string

	// Collect returns every candidate in job order. Candidates are not
	// validated; unsupported or oversized files are left for the validator.
	Collect(ctx context.Context) ([]domain.InputUnit, error)
}

// ReadCandidate stats path and loads its payload when the file has an
// accepted extension and is no larger than maxBytes. Files outside those
// limits are returned with their size only.
func ReadCandidate(path, name string, maxBytes int64) (domain.InputUnit, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.InputUnit{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	unit := domain.InputUnit{Name: name, Size: info.Size()}
	if _, ok := domain.MediaKindFromName(name); !ok {
		return unit, nil
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return unit, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.InputUnit{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	unit.Payload = data
	return unit, nil
}
