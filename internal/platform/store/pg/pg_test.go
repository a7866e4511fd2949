package pg

import (
	"context"
	"errors"
	"testing"

	"churnops/internal/platform/testkit"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dsn = "postgres://churn:churn@db:5432/registry?sslmode=disable"

// capture swaps the pool constructor for one that records the config it was handed
func capture(t *testing.T) *pgxpool.Config {
	t.Helper()
	var got pgxpool.Config
	testkit.Swap(t, &newPool, func(_ context.Context, c *pgxpool.Config) (*pgxpool.Pool, error) {
		got = *c
		// zero pool, never closed
		return &pgxpool.Pool{}, nil
	})
	return &got
}

func TestOpenRejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{URL: "://nope"}, nil, nil)
	require.Error(t, err)
}

func TestOpenSurfacesPoolError(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &newPool, func(context.Context, *pgxpool.Config) (*pgxpool.Pool, error) {
		return nil, errors.New("pool exhausted")
	})

	_, err := Open(context.Background(), Config{URL: dsn}, nil, nil)
	assert.EqualError(t, err, "pool exhausted")
}

func TestOpenAppliesConfig(t *testing.T) {
	testkit.Serial(t)
	got := capture(t)

	mutated := false
	p, err := Open(context.Background(), Config{URL: dsn, MaxConns: 6, SlowMs: 250, AppName: "churn-pipeline"}, nil,
		func(c *pgxpool.Config) {
			mutated = true
			assert.Equal(t, int32(6), c.MaxConns, "max conns applied before the mutator")
		})
	require.NoError(t, err)
	assert.True(t, mutated)
	assert.Equal(t, 250, p.SlowMs)
	assert.NotNil(t, p.Pool)
	assert.Equal(t, "churn-pipeline", got.ConnConfig.RuntimeParams["application_name"])
}

func TestOpenKeepsURLApplicationName(t *testing.T) {
	testkit.Serial(t)
	got := capture(t)

	_, err := Open(context.Background(), Config{URL: dsn + "&application_name=ops", AppName: "churn-api"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ops", got.ConnConfig.RuntimeParams["application_name"])
}

func TestCloseNilSafe(t *testing.T) {
	t.Parallel()

	var p *PG
	p.Close()
	(&PG{}).Close()
}
