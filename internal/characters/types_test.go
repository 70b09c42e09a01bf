package characters

import (
	"encoding/json"
	"testing"
)

func TestRecordUnmarshal_IDForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `{"id":"abc"}`, "abc"},
		{"integer", `{"id":42}`, "42"},
		{"missing", `{"name":"x"}`, ""},
		{"null", `{"id":null}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Record
			if err := json.Unmarshal([]byte(tt.raw), &rec); err != nil {
				t.Fatalf("Unmarshal returned error: %v", err)
			}
			if rec.ID != tt.want {
				t.Fatalf("ID = %q, want %q", rec.ID, tt.want)
			}
		})
	}
}

func TestRecordUnmarshal_RejectsObjectID(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"id":{"x":1}}`), &rec); err == nil {
		t.Fatalf("Unmarshal returned nil error, want id decode failure")
	}
}

func TestRecordHelpers(t *testing.T) {
	rec := Record{Description: "desc"}
	if rec.LoreText() != "desc" {
		t.Fatalf("LoreText = %q, want desc fallback", rec.LoreText())
	}
	rec.Lore = "deep lore"
	if rec.LoreText() != "deep lore" {
		t.Fatalf("LoreText = %q, want lore", rec.LoreText())
	}
	if rec.CategoryOrDefault() != "character" {
		t.Fatalf("CategoryOrDefault = %q, want character", rec.CategoryOrDefault())
	}
	rec.Category = " Boss "
	if rec.CategoryOrDefault() != "boss" {
		t.Fatalf("CategoryOrDefault = %q, want boss", rec.CategoryOrDefault())
	}
	var nilStats *Stats
	if nilStats.HasAny() {
		t.Fatalf("nil stats HasAny = true")
	}
	if !(&Stats{Defense: 1}).HasAny() {
		t.Fatalf("HasAny = false, want true")
	}
}

func TestFieldsTrimmed(t *testing.T) {
	got := Fields{Name: " N ", Description: "\tD\n", Image: " I"}.Trimmed()
	if got != (Fields{Name: "N", Description: "D", Image: "I"}) {
		t.Fatalf("Trimmed = %#v", got)
	}
}

func TestCloneRecords_IsDeep(t *testing.T) {
	orig := []Record{{ID: "a", Attributes: []string{"x"}, Stats: &Stats{HP: 1}}}
	dup := CloneRecords(orig)
	dup[0].Attributes[0] = "mutated"
	dup[0].Stats.HP = 99
	if orig[0].Attributes[0] != "x" || orig[0].Stats.HP != 1 {
		t.Fatalf("CloneRecords shared nested data: %#v", orig[0])
	}
	if CloneRecords(nil) != nil {
		t.Fatalf("CloneRecords(nil) should be nil")
	}
}

func TestIndexOf(t *testing.T) {
	records := []Record{{ID: "a"}, {ID: "b"}}
	if IndexOf(records, "b") != 1 {
		t.Fatalf("IndexOf(b) != 1")
	}
	if IndexOf(records, "") != -1 || IndexOf(records, "zz") != -1 {
		t.Fatalf("IndexOf should return -1 for missing ids")
	}
}
