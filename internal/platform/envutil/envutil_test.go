package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("X_DUR", "750ms")
	if got := Duration("X_DUR", time.Second); got != 750*time.Millisecond {
		t.Fatalf("duration string: got=%s", got)
	}
	t.Setenv("X_DUR", "250")
	if got := Duration("X_DUR", time.Second); got != 250*time.Millisecond {
		t.Fatalf("bare millis: got=%s", got)
	}
	t.Setenv("X_DUR", "nope")
	if got := Duration("X_DUR", time.Second); got != time.Second {
		t.Fatalf("fallback: got=%s", got)
	}
}

func TestBoolAndList(t *testing.T) {
	t.Setenv("X_BOOL", "on")
	if !Bool("X_BOOL", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("X_BOOL", "garbage")
	if Bool("X_BOOL", false) {
		t.Fatalf("expected default false")
	}
	t.Setenv("X_LIST", " a, ,b ")
	got := List("X_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("list: got=%v", got)
	}
}
