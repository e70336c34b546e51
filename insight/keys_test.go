package insight

import "testing"

func TestKeyManagerRotation(t *testing.T) {
	km := NewKeyManager([]string{"a", "b", "c"})

	if got := km.Current(); got != "a" {
		t.Errorf("Current() = %q, want %q", got, "a")
	}
	if got := km.Next(); got != "b" {
		t.Errorf("Next() = %q, want %q", got, "b")
	}
	if got := km.Next(); got != "c" {
		t.Errorf("Next() = %q, want %q", got, "c")
	}
	// Rotation wraps around.
	if got := km.Next(); got != "a" {
		t.Errorf("Next() = %q, want %q", got, "a")
	}
	if got := km.Current(); got != "a" {
		t.Errorf("Current() after wrap = %q, want %q", got, "a")
	}
	if km.Len() != 3 {
		t.Errorf("Len() = %d, want 3", km.Len())
	}
}

func TestKeyManagerEmpty(t *testing.T) {
	km := NewKeyManager(nil)
	if got := km.Current(); got != "" {
		t.Errorf("Current() = %q, want empty", got)
	}
	if got := km.Next(); got != "" {
		t.Errorf("Next() = %q, want empty", got)
	}
	if km.Len() != 0 {
		t.Errorf("Len() = %d, want 0", km.Len())
	}
}
