package repokit

import (
	"context"
	"time"

	perr "churnops/internal/platform/errors"
)

type guarder interface {
	Guard(context.Context) error
}

// Ready runs Guard under a 5s deadline when ctx has none
// a failing backend comes back as Unavailable
func Ready(ctx context.Context, st guarder) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := st.Guard(ctx); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "backend not ready")
	}
	return nil
}
