package characters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Record mirrors one entry returned by /api/characters.
type Record struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Type        string   `json:"type,omitempty"`
	Category    string   `json:"category,omitempty"`
	Rarity      string   `json:"rarity,omitempty"`
	Lore        string   `json:"lore,omitempty"`
	Attributes  []string `json:"attributes,omitempty"`
	Stats       *Stats   `json:"stats,omitempty"`
}

// Stats holds the optional game statistics of a record.
type Stats struct {
	HP      float64 `json:"hp"`
	Damage  float64 `json:"damage"`
	Defense float64 `json:"defense"`
}

// HasAny reports whether at least one stat is non-zero.
func (s *Stats) HasAny() bool {
	if s == nil {
		return false
	}
	return s.HP != 0 || s.Damage != 0 || s.Defense != 0
}

// Fields are the editable parts of a record.
type Fields struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (f Fields) Trimmed() Fields {
	return Fields{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Image:       strings.TrimSpace(f.Image),
	}
}

// updateBody is the PATCH payload. Field order matches what the API expects.
type updateBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ID          string `json:"id"`
}

// LoreText returns the lore, falling back to the description.
func (r Record) LoreText() string {
	if strings.TrimSpace(r.Lore) != "" {
		return r.Lore
	}
	return r.Description
}

// CategoryOrDefault returns the category, "character" when unset.
func (r Record) CategoryOrDefault() string {
	if c := strings.TrimSpace(r.Category); c != "" {
		return strings.ToLower(c)
	}
	return "character"
}

// UnmarshalJSON accepts both string and numeric ids.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	*r = Record(raw.plain)
	r.ID = id
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode id: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("decode id: %w", err)
	}
	return n.String(), nil
}

// CloneRecords returns a deep copy of records.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	dup := make([]Record, len(records))
	for i, rec := range records {
		dup[i] = rec
		if rec.Attributes != nil {
			dup[i].Attributes = append([]string(nil), rec.Attributes...)
		}
		if rec.Stats != nil {
			stats := *rec.Stats
			dup[i].Stats = &stats
		}
	}
	return dup
}

// IndexOf returns the position of id in records, or -1.
func IndexOf(records []Record, id string) int {
	if id == "" {
		return -1
	}
	for i, rec := range records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}
