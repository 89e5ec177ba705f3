package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Fanout delivers a run-summary event to every configured sink. Failures are
// collected rather than short-circuited: one misconfigured webhook must not
// keep the queue publishers from seeing the run.
type Fanout struct {
	publishers []Publisher
}

// NewFanout builds a dispatcher over the given publishers, dropping nils.
func NewFanout(pubs []Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range pubs {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// Publish sends the event to each publisher in order and reports how many
// accepted it. The returned error joins every individual failure.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil {
		return 0, nil
	}

	successful := 0
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
			continue
		}
		successful++
	}
	return successful, errors.Join(errs...)
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}
