package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	kit "churnops/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	api := New().Prefix("CHURN_").Prefix("API_")
	if got := api.key("PORT"); got != "CHURN_API_PORT" {
		t.Fatalf("key() = %q", got)
	}
}

func TestMust(t *testing.T) {
	c := New().Prefix("T_")
	t.Setenv("T_NAME", "  churn ")
	t.Setenv("T_ROUNDS", " 100 ")
	t.Setenv("T_BAD", "x")

	if got := c.MustString("NAME"); got != "churn" {
		t.Fatalf("MustString = %q", got)
	}
	if got := c.MustInt("ROUNDS"); got != 100 {
		t.Fatalf("MustInt = %d", got)
	}

	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
	kit.MustPanic(t, func() { _ = c.MustInt("BAD") })
}

func TestMay(t *testing.T) {
	c := New().Prefix("M_")
	t.Setenv("M_ETA", "0.3")
	t.Setenv("M_DEPTH", "7")
	t.Setenv("M_SEED", "9000000000")
	t.Setenv("M_ON", "true")
	t.Setenv("M_WAIT", "250ms")
	t.Setenv("M_LIST", " a, ,b ")
	t.Setenv("M_JUNK", "nope")

	if got := c.MayFloat64("ETA", 0.1); got != 0.3 {
		t.Fatalf("MayFloat64 = %v", got)
	}
	if got := c.MayInt("DEPTH", 5); got != 7 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayInt64("SEED", 42); got != 9000000000 {
		t.Fatalf("MayInt64 = %d", got)
	}
	if !c.MayBool("ON", false) {
		t.Fatalf("MayBool should be true")
	}
	if got := c.MayDuration("WAIT", time.Second); got != 250*time.Millisecond {
		t.Fatalf("MayDuration = %v", got)
	}
	if got := c.MayCSV("LIST", nil); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("MayCSV = %v", got)
	}

	// invalid values fall back to defaults
	if got := c.MayInt("JUNK", 3); got != 3 {
		t.Fatalf("MayInt fallback = %d", got)
	}
	if got := c.MayFloat64("JUNK", 0.5); got != 0.5 {
		t.Fatalf("MayFloat64 fallback = %v", got)
	}
	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString fallback = %q", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")
	t.Setenv("E_MODE", "BEST-EFFORT")
	if got := c.MayEnum("MODE", "strict", "strict", "best-effort"); got != "best-effort" {
		t.Fatalf("MayEnum = %q", got)
	}
	if got := c.MayEnum("UNSET", "strict", "strict", "best-effort"); got != "strict" {
		t.Fatalf("MayEnum default = %q", got)
	}
	t.Setenv("E_BAD", "lenient")
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "strict", "strict", "best-effort") })
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "test.env")
	if err := os.WriteFile(p, []byte("DOTENV_PROBE_A=from-file\nDOTENV_PROBE_B=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOTENV_PROBE_B", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("DOTENV_PROBE_A") })

	if err := LoadDotenv(p, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if got := os.Getenv("DOTENV_PROBE_A"); got != "from-file" {
		t.Fatalf("A = %q", got)
	}
	if got := os.Getenv("DOTENV_PROBE_B"); got != "from-env" {
		t.Fatalf("existing env should win, got %q", got)
	}
}
