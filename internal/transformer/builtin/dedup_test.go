package builtin

import (
	"reflect"
	"testing"
)

func TestFingerprint_SeparatesCells(t *testing.T) {
	t.Parallel()

	if Fingerprint([]string{"ab", "c"}) == Fingerprint([]string{"a", "bc"}) {
		t.Fatal("fingerprints collide across cell boundaries")
	}
	if Fingerprint([]string{"1", "Avatar"}) != Fingerprint([]string{"1", "Avatar"}) {
		t.Fatal("fingerprint is not deterministic")
	}
}

func TestDeDup_KeepsFirstInOrder(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"1", "Avatar"},
		{"2", "Spectre"},
		{"1", "Avatar"},
		{"1", "Avatar (re-release)"},
	}
	got, dropped := NewDeDup().Apply(rows)
	want := [][]string{{"1", "Avatar"}, {"2", "Spectre"}, {"1", "Avatar (re-release)"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Apply = %v, want %v", got, want)
	}
	if dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
}
