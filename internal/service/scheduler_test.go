package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/timmy/tabextract/internal/domain"
)

// fakeSubmitter records calls and fails units whose name is in fail.
type fakeSubmitter struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]string
	delay time.Duration
}

func (f *fakeSubmitter) Submit(ctx context.Context, unit *domain.InputUnit, instruction string) domain.Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, unit.Name)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if msg, ok := f.fail[unit.Name]; ok {
		return domain.Failure(unit, &domain.UnitError{Kind: domain.FailureTransport, StatusCode: 500, Message: msg})
	}
	return domain.Success(unit, &domain.ExtractionResult{
		Rows:   []domain.Record{{"name": unit.Name}},
		Fields: []string{"name"},
	})
}

func units(n int) []domain.InputUnit {
	out := make([]domain.InputUnit, n)
	for i := range out {
		out[i] = domain.InputUnit{Name: fmt.Sprintf("f%02d.pdf", i), Kind: domain.MediaKindPDF}
	}
	return out
}

func TestPartition(t *testing.T) {
	for _, n := range []int{1, 4, 5, 6, 10, 12, 20} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			us := units(n)
			batches := Partition(us, 5)
			if want := (n + 4) / 5; len(batches) != want {
				t.Fatalf("got %d batches, want %d", len(batches), want)
			}
			for k, b := range batches {
				end := 5*k + 5
				if end > n {
					end = n
				}
				if len(b) != end-5*k {
					t.Fatalf("batch %d has %d units, want %d", k, len(b), end-5*k)
				}
				for i, u := range b {
					if u.Name != us[5*k+i].Name {
						t.Errorf("batch %d[%d] = %s, want %s", k, i, u.Name, us[5*k+i].Name)
					}
				}
			}
		})
	}
}

func TestSchedulerRunPartialFailure(t *testing.T) {
	fake := &fakeSubmitter{fail: map[string]string{"f02.pdf": "HTTP 500"}, delay: 5 * time.Millisecond}
	s := NewScheduler(fake, &SchedulerConfig{BatchSize: 5, SettleInterval: 0})

	var progress []int
	report, err := s.Run(context.Background(), units(7), "ocr_standard", "", func(done, total int) {
		if total != 7 {
			t.Errorf("total = %d, want 7", total)
		}
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Batches != 2 {
		t.Errorf("Batches = %d, want 2", report.Batches)
	}
	if len(progress) != 2 || progress[0] != 5 || progress[1] != 7 {
		t.Errorf("progress = %v, want [5 7]", progress)
	}
	if len(report.Failures) != 1 || report.Failures[0].Unit.Name != "f02.pdf" {
		t.Errorf("Failures = %+v", report.Failures)
	}
	if len(report.Result.Rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(report.Result.Rows))
	}
	// rows keep input order even though submissions ran concurrently
	want := []string{"f00.pdf", "f01.pdf", "f03.pdf", "f04.pdf", "f05.pdf", "f06.pdf"}
	for i, r := range report.Result.Rows {
		if r["name"] != want[i] {
			t.Errorf("row %d = %v, want %s", i, r["name"], want[i])
		}
	}
	// total_files counts the successful units that were combined
	if report.Result.Metadata.TotalUnits != 6 || report.Units != 7 {
		t.Errorf("TotalUnits = %d, Units = %d, want 6 and 7", report.Result.Metadata.TotalUnits, report.Units)
	}
}

// gateSubmitter holds every call until the whole batch has arrived, so a
// scheduler that submits sequentially times out instead of filling the batch.
type gateSubmitter struct {
	mu       sync.Mutex
	width    int
	total    int
	arrived  int
	inFlight int
	peak     int
	timedOut []string
	started  map[string]time.Time
	ended    map[string]time.Time
}

func newGateSubmitter(width, total int) *gateSubmitter {
	return &gateSubmitter{
		width:   width,
		total:   total,
		started: make(map[string]time.Time),
		ended:   make(map[string]time.Time),
	}
}

func (g *gateSubmitter) Submit(ctx context.Context, unit *domain.InputUnit, instruction string) domain.Outcome {
	g.mu.Lock()
	g.arrived++
	g.inFlight++
	if g.inFlight > g.peak {
		g.peak = g.inFlight
	}
	g.started[unit.Name] = time.Now()
	target := ((g.arrived-1)/g.width + 1) * g.width
	if target > g.total {
		target = g.total
	}
	g.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for {
		g.mu.Lock()
		ready := g.arrived >= target
		g.mu.Unlock()
		if ready {
			break
		}
		if time.Now().After(deadline) {
			g.mu.Lock()
			g.timedOut = append(g.timedOut, unit.Name)
			g.mu.Unlock()
			break
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(2 * time.Millisecond)

	g.mu.Lock()
	g.ended[unit.Name] = time.Now()
	g.inFlight--
	g.mu.Unlock()
	return domain.Success(unit, &domain.ExtractionResult{
		Rows:   []domain.Record{{"name": unit.Name}},
		Fields: []string{"name"},
	})
}

func TestSchedulerRunsBatchConcurrentlyAndBatchesInSequence(t *testing.T) {
	us := units(8)
	gate := newGateSubmitter(5, len(us))
	s := NewScheduler(gate, &SchedulerConfig{BatchSize: 5, SettleInterval: 0})

	if _, err := s.Run(context.Background(), us, "ocr_standard", "", nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(gate.timedOut) > 0 {
		t.Fatalf("calls never saw their whole batch in flight: %v", gate.timedOut)
	}
	if gate.peak != 5 {
		t.Errorf("peak in-flight = %d, want 5", gate.peak)
	}

	var lastFirstBatchEnd time.Time
	for _, u := range us[:5] {
		if end := gate.ended[u.Name]; end.After(lastFirstBatchEnd) {
			lastFirstBatchEnd = end
		}
	}
	for _, u := range us[5:] {
		if start := gate.started[u.Name]; start.Before(lastFirstBatchEnd) {
			t.Errorf("%s started at %v, before batch 1 finished at %v", u.Name, start, lastFirstBatchEnd)
		}
	}
}

func TestSchedulerAllUnitsFailed(t *testing.T) {
	fake := &fakeSubmitter{fail: map[string]string{"f00.pdf": "HTTP 502", "f01.pdf": "Extraction failed"}}
	s := NewScheduler(fake, &SchedulerConfig{BatchSize: 5})

	report, err := s.Run(context.Background(), units(2), "ocr_standard", "", nil)
	if report != nil {
		t.Fatalf("expected nil report, got %+v", report)
	}
	if !errors.Is(err, domain.ErrAllUnitsFailed) {
		t.Fatalf("error = %v, want ErrAllUnitsFailed", err)
	}
	var afe *domain.AllUnitsFailedError
	if !errors.As(err, &afe) || len(afe.Failures) != 2 {
		t.Fatalf("expected AllUnitsFailedError with 2 failures, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "f00.pdf: HTTP 502") || !strings.Contains(msg, "f01.pdf: Extraction failed") {
		t.Errorf("message %q does not name every failure", msg)
	}
}

func TestSchedulerEmptyInput(t *testing.T) {
	s := NewScheduler(&fakeSubmitter{}, nil)
	if _, err := s.Run(context.Background(), nil, "ocr_standard", "", nil); !errors.Is(err, domain.ErrNoUnitsProvided) {
		t.Fatalf("error = %v, want ErrNoUnitsProvided", err)
	}
}

func TestSchedulerStopsBetweenBatchesOnCancel(t *testing.T) {
	fake := &fakeSubmitter{}
	s := NewScheduler(fake, &SchedulerConfig{BatchSize: 2, SettleInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := s.Run(ctx, units(6), "ocr_standard", "", func(done, total int) {
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(fake.calls) != 2 {
		t.Errorf("submitted %d units, want 2", len(fake.calls))
	}
}

// blockingSubmitter fails a unit when its context ends before the call completes,
// the way an HTTP client aborts a request.
type blockingSubmitter struct {
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (b *blockingSubmitter) Submit(ctx context.Context, unit *domain.InputUnit, instruction string) domain.Outcome {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	select {
	case <-time.After(b.delay):
		return domain.Success(unit, &domain.ExtractionResult{
			Rows:   []domain.Record{{"name": unit.Name}},
			Fields: []string{"name"},
		})
	case <-ctx.Done():
		return domain.Failure(unit, &domain.UnitError{Kind: domain.FailureTransport, Message: ctx.Err().Error(), Cause: ctx.Err()})
	}
}

func TestSchedulerCancelDuringBatchLetsCallsFinish(t *testing.T) {
	tests := []struct {
		name      string
		units     int
		wantCalls int
		wantErr   bool
	}{
		{"last batch completes", 2, 2, false},
		{"next batch is not started", 4, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &blockingSubmitter{delay: 100 * time.Millisecond}
			s := NewScheduler(sub, &SchedulerConfig{BatchSize: 2, SettleInterval: 0})

			ctx, cancel := context.WithCancel(context.Background())
			time.AfterFunc(20*time.Millisecond, cancel)
			defer cancel()

			report, err := s.Run(ctx, units(tt.units), "ocr_standard", "", nil)
			if sub.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", sub.calls, tt.wantCalls)
			}
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Run: %v", err)
				}
				if len(report.Failures) != 0 || len(report.Result.Rows) != 2 {
					t.Errorf("in-flight units did not complete: failures=%+v", report.Failures)
				}
				return
			}
			if !errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrAllUnitsFailed) {
				t.Fatalf("error = %v, want job stop with context.Canceled", err)
			}
			if !strings.Contains(err.Error(), "job stopped after 2 of 4 units") {
				t.Errorf("error = %q", err.Error())
			}
		})
	}
}

func TestSchedulerCancelDoesNotAbortHTTPCalls(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"extractions":[{"name":"x"}],"headers":["name"]}`))
	}, nil)
	s := NewScheduler(c, &SchedulerConfig{BatchSize: 5, SettleInterval: 0})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	defer cancel()

	us := []domain.InputUnit{
		{Name: "a.pdf", Kind: domain.MediaKindPDF, Payload: []byte("%PDF a")},
		{Name: "b.pdf", Kind: domain.MediaKindPDF, Payload: []byte("%PDF b")},
	}
	report, err := s.Run(ctx, us, "ocr_standard", "", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Successes != 2 {
		t.Errorf("Successes = %d, want 2 (failures: %+v)", report.Successes, report.Failures)
	}
}

func TestSchedulerWaitsBetweenBatches(t *testing.T) {
	s := NewScheduler(&fakeSubmitter{}, &SchedulerConfig{BatchSize: 1, SettleInterval: 20 * time.Millisecond})
	start := time.Now()
	if _, err := s.Run(context.Background(), units(3), "ocr_standard", "", nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("elapsed %v, want at least two settle intervals", elapsed)
	}
}
