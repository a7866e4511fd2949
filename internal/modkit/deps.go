package modkit

import (
	"churnops/internal/platform/config"
	"churnops/internal/platform/logger"
	"churnops/internal/platform/metrics"
	"churnops/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// every backend is optional; modules nil check what they use
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	SQL     store.TxRunner
	CH      store.Clickhouse
	Cache   store.Cache
	Metrics *metrics.Registry
}

// FromStore fills the backend fields from an opened Store
func (d Deps) FromStore(s *store.Store) Deps {
	if s == nil {
		return d
	}
	d.SQL = s.SQL()
	d.CH = s.CH
	d.Cache = s.RDS
	return d
}
