package session

import (
	"errors"
	"testing"

	"github.com/timmy/tabextract/internal/domain"
)

func TestBeginRejectsConcurrentJob(t *testing.T) {
	s := New()
	if err := s.Begin("job-1", 3); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := s.Begin("job-2", 1); !errors.Is(err, domain.ErrJobRunning) {
		t.Fatalf("second Begin error = %v, want ErrJobRunning", err)
	}

	s.Advance(2, 3)
	st := s.Status()
	if !st.Running || st.JobID != "job-1" || st.Processed != 2 || st.Total != 3 {
		t.Errorf("Status = %+v", st)
	}

	s.End(nil)
	if s.IsRunning() {
		t.Error("still running after End")
	}
	if err := s.Begin("job-3", 1); err != nil {
		t.Errorf("Begin after End: %v", err)
	}
}

func TestEndKeepsLastSuccessfulResult(t *testing.T) {
	s := New()
	first := &domain.CombinedResult{Rows: []domain.Record{{"a": 1}}}

	s.Begin("a", 1)
	s.End(first)
	if s.LastResult() != first {
		t.Fatal("LastResult not replaced by successful job")
	}

	s.Begin("b", 1)
	s.End(nil)
	if s.LastResult() != first {
		t.Error("failed job should not clear the last result")
	}
}

func TestAdvanceIgnoredWhenIdle(t *testing.T) {
	s := New()
	s.Advance(4, 5)
	if st := s.Status(); st.Processed != 0 || st.Running {
		t.Errorf("Status = %+v", st)
	}
}
