package dex

import "strings"

// chart lists every non-neutral matchup: attacking type → defending type → multiplier.
var chart = map[string]map[string]float64{
	"normal":   {"rock": 0.5, "steel": 0.5, "ghost": 0},
	"fire":     {"grass": 2, "ice": 2, "bug": 2, "steel": 2, "fire": 0.5, "water": 0.5, "rock": 0.5, "dragon": 0.5},
	"water":    {"fire": 2, "ground": 2, "rock": 2, "water": 0.5, "grass": 0.5, "dragon": 0.5},
	"electric": {"water": 2, "flying": 2, "electric": 0.5, "grass": 0.5, "dragon": 0.5, "ground": 0},
	"grass":    {"water": 2, "ground": 2, "rock": 2, "fire": 0.5, "grass": 0.5, "poison": 0.5, "flying": 0.5, "bug": 0.5, "dragon": 0.5, "steel": 0.5},
	"ice":      {"grass": 2, "ground": 2, "flying": 2, "dragon": 2, "fire": 0.5, "water": 0.5, "ice": 0.5, "steel": 0.5},
	"fighting": {"normal": 2, "ice": 2, "rock": 2, "dark": 2, "steel": 2, "poison": 0.5, "flying": 0.5, "psychic": 0.5, "bug": 0.5, "fairy": 0.5, "ghost": 0},
	"poison":   {"grass": 2, "fairy": 2, "poison": 0.5, "ground": 0.5, "rock": 0.5, "ghost": 0.5, "steel": 0},
	"ground":   {"fire": 2, "electric": 2, "poison": 2, "rock": 2, "steel": 2, "grass": 0.5, "bug": 0.5, "flying": 0},
	"flying":   {"grass": 2, "fighting": 2, "bug": 2, "electric": 0.5, "rock": 0.5, "steel": 0.5},
	"psychic":  {"fighting": 2, "poison": 2, "psychic": 0.5, "steel": 0.5, "dark": 0},
	"bug":      {"grass": 2, "psychic": 2, "dark": 2, "fire": 0.5, "fighting": 0.5, "poison": 0.5, "flying": 0.5, "ghost": 0.5, "steel": 0.5, "fairy": 0.5},
	"rock":     {"fire": 2, "ice": 2, "flying": 2, "bug": 2, "fighting": 0.5, "ground": 0.5, "steel": 0.5},
	"ghost":    {"psychic": 2, "ghost": 2, "dark": 0.5, "normal": 0},
	"dragon":   {"dragon": 2, "steel": 0.5, "fairy": 0},
	"dark":     {"psychic": 2, "ghost": 2, "fighting": 0.5, "dark": 0.5, "fairy": 0.5},
	"steel":    {"ice": 2, "rock": 2, "fairy": 2, "fire": 0.5, "water": 0.5, "electric": 0.5, "steel": 0.5},
	"fairy":    {"fighting": 2, "dragon": 2, "dark": 2, "fire": 0.5, "poison": 0.5, "steel": 0.5},
}

// Matchup returns the multiplier of one attacking type against one defending type:
// 0, 0.5, 1 or 2. Unknown types are neutral.
func Matchup(attacking, defending string) float64 {
	row, ok := chart[strings.ToLower(attacking)]
	if !ok {
		return 1
	}
	if m, ok := row[strings.ToLower(defending)]; ok {
		return m
	}
	return 1
}

// Effectiveness combines Matchup multiplicatively over every defending type.
//
// Postcondition: result is independent of the order of defending.
func Effectiveness(moveType string, defending []string) float64 {
	eff := 1.0
	for _, t := range defending {
		eff *= Matchup(moveType, t)
	}
	return eff
}

// HasType reports whether types contains t, ignoring case.
func HasType(types []string, t string) bool {
	for _, x := range types {
		if strings.EqualFold(x, t) {
			return true
		}
	}
	return false
}
