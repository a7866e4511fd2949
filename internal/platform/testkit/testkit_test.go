package testkit

import "testing"

func TestMustPanic(t *testing.T) {
	t.Parallel()
	MustPanic(t, func() { panic("boom") })
}

func TestMustContain(t *testing.T) {
	t.Parallel()
	MustContain(t, "alpha beta gamma", "beta")
}

func TestWriteReadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := WriteFile(t, dir, "raw/churn_data.csv", "a,b\n1,2\n")
	if got := ReadFile(t, p); got != "a,b\n1,2\n" {
		t.Fatalf("ReadFile = %q", got)
	}
}
