package types

import "testing"

func TestColumns_AllKindsRegistered(t *testing.T) {
	for _, kind := range Kinds() {
		if kind.Columns() < 2 {
			t.Errorf("kind %s: columns = %d, want at least user_id + timestamp", kind, kind.Columns())
		}
		if !kind.Known() {
			t.Errorf("kind %s: Known() = false", kind)
		}
	}
}

func TestColumns_UnknownKind(t *testing.T) {
	if KindUnknown.Known() {
		t.Error("KindUnknown.Known() = true, want false")
	}
	if got := KindUnknown.Columns(); got != 0 {
		t.Errorf("KindUnknown.Columns() = %d, want 0", got)
	}
	if got := Kind("pet_mood").Columns(); got != 0 {
		t.Errorf("unregistered kind Columns() = %d, want 0", got)
	}
}

func TestKinds_CountAndUniqueness(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 19 {
		t.Fatalf("len(Kinds()) = %d, want 19", len(kinds))
	}
	seen := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		if _, dup := seen[k]; dup {
			t.Errorf("kind %s listed twice", k)
		}
		seen[k] = struct{}{}
	}
}
