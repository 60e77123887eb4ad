// Package notify delivers new-transaction events from the poll engine to
// the dashboard and to external subscribers.
package notify

import (
	"context"
	"errors"

	"github.com/Mohsinsiddi/txdash/internal/poller"
)

// Notifier is satisfied by every type in this package and by
// poller.Notifier consumers.
type Notifier = poller.Notifier

// Func adapts a function to Notifier.
type Func func(ctx context.Context, ev poller.Event) error

func (f Func) Notify(ctx context.Context, ev poller.Event) error {
	return f(ctx, ev)
}

// Multi fans an event out to every notifier in order. All notifiers are
// called even when one fails; the failures are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev poller.Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
