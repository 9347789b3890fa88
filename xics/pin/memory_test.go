package pin

import "testing"

func TestMemoryPin(t *testing.T) {
	var m Memory
	if m.Raised() {
		t.Fatal("new pin should start lowered")
	}
	m.Raise()
	if !m.Raised() {
		t.Fatal("expected raised after Raise")
	}
	m.Lower()
	if m.Raised() {
		t.Fatal("expected lowered after Lower")
	}
	m.Set(true)
	if !m.Raised() {
		t.Fatal("expected raised after Set(true)")
	}
}
