package syncer

import "github.com/etd-wiki/dungeon/internal/characters"

// SampleRecords returns the built-in set used by the CacheThenSample policy.
func SampleRecords() []characters.Record {
	return []characters.Record{
		{
			ID:          "sample-warden",
			Name:        "Aria the Warden",
			Description: "Keeper of the first gate and the last torch.",
			Image:       "https://res.cloudinary.com/demo/image/upload/sample.jpg",
			Type:        "Hero",
			Category:    "character",
			Rarity:      "RARE",
			Lore:        "Aria has guarded the upper halls since the collapse, turning back anything that climbs.",
			Attributes:  []string{"Shield", "Light", "Vigilant"},
			Stats:       &characters.Stats{HP: 420, Damage: 90, Defense: 160},
		},
		{
			ID:          "sample-goblin",
			Name:        "Cave Goblin",
			Description: "Small, loud and never alone.",
			Image:       "https://res.cloudinary.com/demo/image/upload/sample.jpg",
			Type:        "Enemy",
			Category:    "enemy",
			Rarity:      "COMMON",
			Attributes:  []string{"Swarm"},
			Stats:       &characters.Stats{HP: 60, Damage: 25, Defense: 10},
		},
		{
			ID:          "sample-dragon",
			Name:        "Dragon King",
			Description: "Sleeps beneath the deepest vault.",
			Image:       "https://res.cloudinary.com/demo/image/upload/sample.jpg",
			Type:        "Boss",
			Category:    "boss",
			Rarity:      "LEGENDARY",
			Lore:        "The deeper you descend, the darker the secrets become.",
			Attributes:  []string{"Fire", "Flight", "Ancient"},
			Stats:       &characters.Stats{HP: 600, Damage: 280, Defense: 190},
		},
	}
}
