package gateway

import (
	"context"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/agenthire/agenthire-go/pkg/errs"
)

// WaitForEvent subscribes to query and blocks until the first event
// satisfying match arrives, the timeout elapses, or the context is
// cancelled. The subscription is torn down on every exit path, so the
// caller never leaks a listener.
func WaitForEvent(ctx context.Context, src EventSource, query string, timeout time.Duration, match func(Event) bool) (Event, error) {
	events, unsubscribe, err := src.Subscribe(ctx, query)
	if err != nil {
		return Event{}, err
	}
	defer unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Event{}, errorsmod.Wrap(errs.ErrTransient, ctx.Err().Error())
		case <-timer.C:
			return Event{}, errorsmod.Wrapf(errs.ErrTimeout, "no matching event within %s", timeout)
		case ev, ok := <-events:
			if !ok {
				return Event{}, errorsmod.Wrap(errs.ErrTransient, "event stream closed")
			}
			if match(ev) {
				return ev, nil
			}
		}
	}
}
