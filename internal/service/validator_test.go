package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/timmy/tabextract/internal/domain"
)

func filesNamed(n int, size int64) []domain.InputUnit {
	units := make([]domain.InputUnit, n)
	for i := range units {
		units[i] = domain.InputUnit{Name: fmt.Sprintf("doc_%02d.pdf", i), Size: size}
	}
	return units
}

func TestValidatorAcceptsFilteredSet(t *testing.T) {
	v := NewValidator(0, 0)
	candidates := []domain.InputUnit{
		{Name: "a.pdf", Size: 10},
		{Name: "notes.txt", Size: 10},
		{Name: "B.CSV", Size: 20},
		{Name: "image.png", Size: 30},
	}

	got, err := v.Validate(candidates)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("accepted %d units, want 2", len(got))
	}
	if got[0].Name != "a.pdf" || got[0].Kind != domain.MediaKindPDF {
		t.Errorf("first unit = %+v", got[0])
	}
	if got[1].Name != "B.CSV" || got[1].Kind != domain.MediaKindCSV {
		t.Errorf("second unit = %+v", got[1])
	}
}

func TestValidatorLimits(t *testing.T) {
	tests := []struct {
		name    string
		units   []domain.InputUnit
		wantErr error
	}{
		{"twenty files accepted", filesNamed(20, 1024), nil},
		{"twenty one files rejected", filesNamed(21, 1024), domain.ErrTooManyInputs},
		{"exactly max size accepted", filesNamed(1, DefaultMaxFileSize), nil},
		{"one byte over rejected", filesNamed(1, DefaultMaxFileSize+1), domain.ErrOversizedInput},
		{"empty selection", nil, domain.ErrNoUnitsProvided},
		{"only unsupported types", []domain.InputUnit{{Name: "x.docx", Size: 1}}, domain.ErrNoUnitsProvided},
	}

	v := NewValidator(DefaultMaxFiles, DefaultMaxFileSize)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(tt.units)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(got) != len(tt.units) {
					t.Fatalf("accepted %d, want %d", len(got), len(tt.units))
				}
				for i := range got {
					if got[i].Name != tt.units[i].Name {
						t.Errorf("unit %d = %q, want %q", i, got[i].Name, tt.units[i].Name)
					}
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !domain.IsValidationError(err) {
				t.Errorf("IsValidationError(%v) = false", err)
			}
		})
	}
}

func TestValidatorNamesEveryOversizedFile(t *testing.T) {
	v := NewValidator(0, 100)
	_, err := v.Validate([]domain.InputUnit{
		{Name: "big.pdf", Size: 101},
		{Name: "small.csv", Size: 10},
		{Name: "huge.csv", Size: 5000},
		{Name: "ignored.txt", Size: 999999},
	})

	var oe *domain.OversizedInputError
	if !errors.As(err, &oe) {
		t.Fatalf("error = %v, want *OversizedInputError", err)
	}
	if len(oe.Names) != 2 || oe.Names[0] != "big.pdf" || oe.Names[1] != "huge.csv" {
		t.Errorf("Names = %v, want [big.pdf huge.csv]", oe.Names)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{15 * 1024 * 1024, "15 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
