package envutil

import (
	"testing"
	"time"
)

func TestTypedLookups(t *testing.T) {
	t.Setenv("EU_INT", "12")
	t.Setenv("EU_BAD_INT", "x")
	t.Setenv("EU_FLOAT", "0.25")
	t.Setenv("EU_BOOL", "off")
	t.Setenv("EU_SECONDS", "30")
	t.Setenv("EU_STRING", "  value ")

	if got := Int("EU_INT", 1); got != 12 {
		t.Fatalf("Int: want=12 got=%d", got)
	}
	if got := Int("EU_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback: want=7 got=%d", got)
	}
	if got := Float("EU_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float: want=0.25 got=%v", got)
	}
	if got := Bool("EU_BOOL", true); got {
		t.Fatalf("Bool: want=false got=%v", got)
	}
	if got := Bool("EU_MISSING", true); !got {
		t.Fatalf("Bool default: want=true got=%v", got)
	}
	if got := Seconds("EU_SECONDS", time.Second); got != 30*time.Second {
		t.Fatalf("Seconds: want=30s got=%v", got)
	}
	if got := String("EU_STRING", "def"); got != "value" {
		t.Fatalf("String: want=value got=%q", got)
	}
	if IsSet("EU_MISSING") {
		t.Fatalf("IsSet: want=false")
	}
}
