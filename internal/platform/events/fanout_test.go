package events

import (
	"context"
	"errors"
	"testing"

	"github.com/pawcare/partner-api/internal/domain/record"
)

type stubSink struct {
	calls int
	err   error
}

func (s *stubSink) RecordStatusChanged(context.Context, record.StatusChangedEvent) error {
	s.calls++
	return s.err
}

func TestFanout_DeliversToEverySink(t *testing.T) {
	a, b := &stubSink{}, &stubSink{}
	f := Fanout{a, b}

	if err := f.RecordStatusChanged(context.Background(), record.StatusChangedEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("expected one call each, got %d and %d", a.calls, b.calls)
	}
}

func TestFanout_FailedSinkDoesNotStopOthers(t *testing.T) {
	boom := errors.New("kafka down")
	a := &stubSink{err: boom}
	b := &stubSink{}
	f := Fanout{a, b}

	err := f.RecordStatusChanged(context.Background(), record.StatusChangedEvent{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the sink error to surface, got %v", err)
	}
	if b.calls != 1 {
		t.Error("later sinks must still be attempted")
	}
}
