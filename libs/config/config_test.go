package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("PO_TEST_INT", "abc")
	if got := Int("PO_TEST_INT", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	t.Setenv("PO_TEST_INT", "-3")
	if got := Int("PO_TEST_INT", 7); got != 7 {
		t.Fatalf("expected fallback for negative, got %d", got)
	}
	t.Setenv("PO_TEST_INT", " 42 ")
	if got := Int("PO_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("PO_TEST_BOOL", "off")
	if Bool("PO_TEST_BOOL", true) {
		t.Fatal("expected false")
	}
	t.Setenv("PO_TEST_BOOL", "maybe")
	if !Bool("PO_TEST_BOOL", true) {
		t.Fatal("expected fallback true")
	}
}

func TestListAndSeconds(t *testing.T) {
	t.Setenv("PO_TEST_LIST", "a, ,b,")
	if got := List("PO_TEST_LIST", ""); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected list %v", got)
	}
	if got := List("PO_TEST_LIST_UNSET", "x,y"); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("unexpected fallback list %v", got)
	}
	t.Setenv("PO_TEST_SECS", "30")
	if got := Seconds("PO_TEST_SECS", time.Second); got != 30*time.Second {
		t.Fatalf("unexpected duration %s", got)
	}
}

func TestPortValidation(t *testing.T) {
	t.Setenv("PO_TEST_PORT", "70000")
	if _, err := Port("PO_TEST_PORT", "8080"); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
	if p, err := Port("PO_TEST_PORT_UNSET", "8083"); err != nil || p != "8083" {
		t.Fatalf("expected fallback port, got %q %v", p, err)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PO_TEST_DOTENV=fromfile\nPO_TEST_DOTENV_KEEP=fromfile\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PO_TEST_DOTENV_KEEP", "fromenv")
	t.Cleanup(func() { _ = os.Unsetenv("PO_TEST_DOTENV") })

	LoadDotEnv(path, filepath.Join(dir, "missing.env"))
	if got := os.Getenv("PO_TEST_DOTENV"); got != "fromfile" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("PO_TEST_DOTENV_KEEP"); got != "fromenv" {
		t.Fatalf("expected env to win, got %q", got)
	}
}
