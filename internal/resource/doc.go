// Package resource bounds what a build or publish run may consume.
//
// Memory reservations cover the large build buffers and fail fast when the
// budget is exhausted:
//
//	res, err := rc.Reserve("suffix array", int64(n)*8)
//	if err != nil {
//	    return err // wraps ErrMemoryLimitExceeded
//	}
//	defer res.Release()
//
// Transfer slots bound concurrent artifact copies, and a token bucket
// throttles artifact writes:
//
//	w = resource.NewRateLimitedWriter(ctx, w, rc)
//
// A nil *Controller is valid and imposes no limits.
package resource
