package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"churnops/internal/platform/config"
	"churnops/internal/platform/metrics"
	"churnops/internal/platform/net/middleware"
)

// CommonStack is the root middleware chain for the API
// reg may be nil to skip request metrics
func CommonStack(cfg config.Conf, reg *metrics.Registry) []func(http.Handler) http.Handler {
	mw := []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{
			Slow: cfg.MayDuration("SLOW_REQUEST", time.Second),
			Skip: []string{"/metrics", "/api/v1/health"},
		}),
		middleware.RecoverJSON,
	}
	if reg != nil {
		mw = append(mw, reg.HTTP())
	}
	return append(mw,
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", nil),
			MaxAge:         300,
		}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(cfg.MayDuration("REQUEST_TIMEOUT", 30*time.Second)),
	)
}

// NoStore disables caching on a route group
func NoStore() func(http.Handler) http.Handler { return middleware.NoCache() }
