package scraper

import (
	"context"
	"time"

	domerrors "github.com/garyellow/roomharvest/internal/errors"
)

// Poll calls cond every interval until it reports true, the timeout elapses
// or ctx is done. It returns nil on success and ErrTimeout when the timeout
// elapses first. An error from cond is returned as is.
func Poll(ctx context.Context, interval, timeout time.Duration, cond func(context.Context) (bool, error)) error {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return domerrors.ErrTimeout
		}
		if err := Sleep(ctx, min(interval, remaining)); err != nil {
			return err
		}
	}
}
