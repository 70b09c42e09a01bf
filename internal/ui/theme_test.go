package ui

import (
	"testing"

	"github.com/etd-wiki/dungeon/internal/state"
)

func TestGetThemeFallsBackToDefault(t *testing.T) {
	if got := GetTheme("nope").Name; got != defaultThemeName {
		t.Fatalf("GetTheme(nope) = %q, want %q", got, defaultThemeName)
	}
	if got := GetTheme("Ember").Name; got != "Ember" {
		t.Fatalf("GetTheme(Ember) = %q", got)
	}
}

func TestNextThemeCycles(t *testing.T) {
	names := ThemeNames()
	current := names[0]
	for i := 0; i < len(names); i++ {
		current = NextTheme(current)
	}
	if current != names[0] {
		t.Fatalf("after a full cycle got %q, want %q", current, names[0])
	}
	if got := NextTheme("unknown"); got != names[0] {
		t.Fatalf("NextTheme(unknown) = %q, want %q", got, names[0])
	}
}

func TestThemesDefineEveryColor(t *testing.T) {
	statuses := []state.Status{state.StatusLoading, state.StatusReady, state.StatusOffline, state.StatusError}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, st := range statuses {
			if th.StatusColors[st] == "" {
				t.Errorf("%s: missing status color for %s", name, st)
			}
		}
		for _, badge := range []string{"boss", "enemy"} {
			if th.BadgeColors[badge] == "" {
				t.Errorf("%s: missing badge color for %s", name, badge)
			}
		}
		for _, rarity := range []string{"common", "rare", "epic", "legendary"} {
			if th.RarityColors[rarity] == "" {
				t.Errorf("%s: missing rarity color for %s", name, rarity)
			}
		}
	}
}
