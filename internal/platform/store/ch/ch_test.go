package ch

import (
	"context"
	"errors"
	"testing"

	"churnops/internal/platform/testkit"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

func TestBuildClientInfo(t *testing.T) {
	info := BuildClientInfo("api", "")
	names := map[string]string{}
	for _, p := range info.Products {
		names[p.Name] = p.Version
	}
	if names["role"] != "api" {
		t.Fatalf("role = %q", names["role"])
	}
	if names["churnops"] != "-" {
		t.Fatalf("empty tag should render as dash, got %q", names["churnops"])
	}
	if names["go"] == "" {
		t.Fatal("go version missing")
	}
}

func TestOpenRejectsBadInput(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := Open(context.Background(), Config{URL: "clickhouse://%zz"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOpenSurfacesDriverError(t *testing.T) {
	testkit.Serial(t)
	var seen *clickhouse.Options
	testkit.Swap(t, &open, func(o *clickhouse.Options) (driver.Conn, error) {
		seen = o
		return nil, errors.New("dial refused")
	})
	_, err := Open(context.Background(), Config{URL: "clickhouse://localhost:9000/default", Role: "api"})
	if err == nil || err.Error() != "dial refused" {
		t.Fatalf("err = %v", err)
	}
	if seen == nil || len(seen.ClientInfo.Products) == 0 {
		t.Fatal("client info not stamped")
	}
}

func TestCloseNilSafe(t *testing.T) {
	var c *CH
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}
