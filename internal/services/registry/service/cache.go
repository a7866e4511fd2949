package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"churnops/internal/platform/logger"
	"churnops/internal/platform/store"
	"churnops/internal/services/registry/domain"

	"github.com/prometheus/client_golang/prometheus"
)

const cacheKeyPrefix = "churn:registry:latest:"

// latestCache memoizes Latest lookups; every failure degrades to a miss
type latestCache struct {
	c   store.Cache
	ttl time.Duration
}

func cacheKey(group string, status domain.ApprovalStatus) string {
	if status == "" {
		return cacheKeyPrefix + group + ":any"
	}
	return cacheKeyPrefix + group + ":" + string(status)
}

func (lc latestCache) get(
	ctx context.Context,
	log *logger.Logger,
	hits *prometheus.CounterVec,
	group string,
	status domain.ApprovalStatus,
) (domain.ModelPackage, bool) {
	if lc.c == nil {
		return domain.ModelPackage{}, false
	}
	raw, err := lc.c.Get(ctx, cacheKey(group, status))
	switch {
	case errors.Is(err, store.ErrCacheMiss):
		hits.WithLabelValues("miss").Inc()
		return domain.ModelPackage{}, false
	case err != nil:
		hits.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("group", group).Msg("registry cache read failed")
		return domain.ModelPackage{}, false
	}
	var p domain.ModelPackage
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		hits.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("group", group).Msg("registry cache entry unreadable")
		return domain.ModelPackage{}, false
	}
	hits.WithLabelValues("hit").Inc()
	return p, true
}

func (lc latestCache) set(ctx context.Context, log *logger.Logger, group string, status domain.ApprovalStatus, p domain.ModelPackage) {
	if lc.c == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := lc.c.Set(ctx, cacheKey(group, status), string(raw), lc.ttl); err != nil {
		log.Warn().Err(err).Str("group", group).Msg("registry cache write failed")
	}
}

func (lc latestCache) invalidate(ctx context.Context, log *logger.Logger, group string) {
	if lc.c == nil {
		return
	}
	keys := []string{
		cacheKey(group, ""),
		cacheKey(group, domain.StatusPending),
		cacheKey(group, domain.StatusApproved),
		cacheKey(group, domain.StatusRejected),
	}
	if err := lc.c.Del(ctx, keys...); err != nil {
		log.Warn().Err(err).Str("group", group).Msg("registry cache invalidation failed")
	}
}
