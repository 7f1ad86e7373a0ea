package dex

import "fmt"

// Tier is a wild-encounter rarity class.
type Tier string

const (
	Baby      Tier = "Baby"
	Normal    Tier = "Normal"
	Ultra     Tier = "Ultra"
	Legendary Tier = "Legendary"
	Mythical  Tier = "Mythical"
)

// Tiers lists every tier in a stable order.
var Tiers = []Tier{Baby, Normal, Ultra, Legendary, Mythical}

// ParseTier returns the Tier named s.
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// TierTable maps each tier to its eligible species ids.
type TierTable map[Tier][]int

// Validate rejects unknown tier names.
func (t TierTable) Validate() error {
	for name := range t {
		if _, err := ParseTier(string(name)); err != nil {
			return err
		}
	}
	return nil
}
