package module

import (
	"time"

	"churnops/internal/platform/config"
)

// Options holds the registry settings
type Options struct {
	CacheTTL  time.Duration
	ListLimit int
	// Migrate creates the registry tables on start
	Migrate bool
}

// FromConfig reads the registry options from config with CHURN_REGISTRY_ prefix
func FromConfig(cfg config.Conf) Options {
	rc := cfg.Prefix("CHURN_REGISTRY_")
	return Options{
		CacheTTL:  rc.MayDuration("CACHE_TTL", 30*time.Second),
		ListLimit: rc.MayInt("LIST_LIMIT", 100),
		Migrate:   rc.MayBool("MIGRATE", true),
	}
}
