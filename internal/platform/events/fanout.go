package events

import (
	"context"
	"errors"

	"github.com/pawcare/partner-api/internal/domain/record"
)

// Fanout delivers each event to every sink. All sinks are attempted; errors
// are joined.
type Fanout []record.EventSink

func (f Fanout) RecordStatusChanged(ctx context.Context, e record.StatusChangedEvent) error {
	var errs []error
	for _, s := range f {
		if err := s.RecordStatusChanged(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
