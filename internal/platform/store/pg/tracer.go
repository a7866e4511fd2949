package pg

import (
	"context"
	"strings"

	"churnops/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent is one traced statement
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives statement events from the store adapters
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs statements through a child pinned at debug, so CORE_PG_LOG_SQL
// output does not depend on LOG_LEVEL
//
// failed statements log at error, slow ones at warn, the rest at info
func Tracer(root logger.Logger) QueryTracer {
	l := root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return sqlLog{log: &l}
}

type sqlLog struct{ log *logger.Logger }

func (s sqlLog) OnQuery(_ context.Context, ev QueryEvent) {
	lvl := zerolog.InfoLevel
	switch {
	case ev.Err != nil:
		lvl = zerolog.ErrorLevel
	case ev.Slow:
		lvl = zerolog.WarnLevel
	}
	s.log.WithLevel(lvl).
		Str("sql", oneLine(ev.SQL)).
		Interface("args", ev.Args).
		Float64("elapsed_ms", float64(ev.ElapsedUS)/1e3).
		Bool("slow", ev.Slow).
		Err(ev.Err).
		Msg("pg query")
}

// oneLine collapses a multi-line statement for log output
func oneLine(sql string) string { return strings.Join(strings.Fields(sql), " ") }
