package model

import (
	"testing"
)

func TestStringListValue(t *testing.T) {
	v, err := StringList{"a", "b"}.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != `["a","b"]` {
		t.Errorf("Value = %v, want JSON array", v)
	}

	v, err = StringList(nil).Value()
	if err != nil {
		t.Fatalf("Value nil: %v", err)
	}
	if v != "[]" {
		t.Errorf("nil Value = %v, want empty JSON array", v)
	}
}

func TestStringListScan(t *testing.T) {
	var l StringList
	if err := l.Scan([]byte(`["x","y"]`)); err != nil {
		t.Fatalf("Scan bytes: %v", err)
	}
	if len(l) != 2 || l[0] != "x" || l[1] != "y" {
		t.Errorf("Scan result = %v", l)
	}

	if err := l.Scan(`["z"]`); err != nil {
		t.Fatalf("Scan string: %v", err)
	}
	if len(l) != 1 || l[0] != "z" {
		t.Errorf("Scan string result = %v", l)
	}

	if err := l.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if l != nil {
		t.Errorf("Scan nil result = %v, want nil", l)
	}

	if err := l.Scan(42); err == nil {
		t.Error("Scan int should fail")
	}
}

func TestEffectiveIssueNotes(t *testing.T) {
	attention := QualityAttention
	good := QualityGood

	room := Room{Quality: &attention}
	notes := room.EffectiveIssueNotes()
	if len(notes) != 1 || notes[0] != DefaultIssueNote {
		t.Errorf("attention room without notes = %v, want synthesized default", notes)
	}

	room = Room{Quality: &attention, IssueNotes: StringList{"scratched floor"}}
	notes = room.EffectiveIssueNotes()
	if len(notes) != 1 || notes[0] != "scratched floor" {
		t.Errorf("recorded notes replaced: %v", notes)
	}

	room = Room{Quality: &good}
	if notes = room.EffectiveIssueNotes(); len(notes) != 0 {
		t.Errorf("good room notes = %v, want none", notes)
	}

	room = Room{}
	if notes = room.EffectiveIssueNotes(); len(notes) != 0 {
		t.Errorf("unassessed room notes = %v, want none", notes)
	}
}
