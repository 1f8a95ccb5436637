package utils

import (
	"strings"
)

// needAliases maps free-form need names to their canonical backend key
var needAliases = map[string]string{
	// long trip
	"perjalanan_jauh": "perjalanan_jauh",
	"perjalanan jauh": "perjalanan_jauh",
	"long trip":       "perjalanan_jauh",
	"long_trip":       "perjalanan_jauh",
	"longtrip":        "perjalanan_jauh",
	"trip jauh":       "perjalanan_jauh",
	"mudik":           "perjalanan_jauh",
	"touring":         "perjalanan_jauh",

	// city
	"perkotaan":  "perkotaan",
	"short trip": "perkotaan",
	"short_trip": "perkotaan",
	"shorttrip":  "perkotaan",
	"city":       "perkotaan",
	"urban":      "perkotaan",

	// fun to drive
	"fun":          "fun",
	"fun to drive": "fun",
	"fun_to_drive": "fun",
	"fun2drive":    "fun",
	"sporty":       "fun",

	"offroad":  "offroad",
	"off road": "offroad",
	"off_road": "offroad",
	"off-road": "offroad",

	"niaga":      "niaga",
	"usaha":      "niaga",
	"commercial": "niaga",

	"keluarga": "keluarga",
	"family":   "keluarga",
}

// CanonNeed returns the canonical key for a need name. Unknown names are
// returned lowercased and trimmed.
func CanonNeed(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if canon, ok := needAliases[s]; ok {
		return canon
	}
	return s
}

// CanonNeeds canonicalises a list, dropping blanks and duplicates while keeping order
func CanonNeeds(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		c := CanonNeed(k)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// FuelCodeLoose guesses a fuel code from a free-form fuel description.
// Order matters: "plug-in hybrid" must resolve to p before the hybrid check.
func FuelCodeLoose(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "" || s == "na" || s == "n/a" || s == "-":
		return "o"
	case strings.Contains(s, "phev") || strings.Contains(s, "plug-in"):
		return "p"
	case s == "h" || strings.Contains(s, "hybrid") || strings.Contains(s, "hev"):
		return "h"
	case s == "e" || s == "ev" || strings.Contains(s, "bev") || strings.Contains(s, "electric") || strings.Contains(s, "listrik"):
		return "e"
	case s == "d" || strings.Contains(s, "diesel") || strings.Contains(s, "dsl"):
		return "d"
	case s == "g" || strings.Contains(s, "bensin") || strings.Contains(s, "gasoline") || strings.Contains(s, "petrol"):
		return "g"
	}
	return "o"
}

var fuelLabels = map[string]string{
	"g": "Bensin",
	"d": "Diesel",
	"h": "Hybrid",
	"p": "PHEV",
	"e": "BEV",
	"o": "Lainnya",
}

// FuelLabel returns the display label for a fuel code
func FuelLabel(code string) string {
	if l, ok := fuelLabels[strings.ToLower(code)]; ok {
		return l
	}
	return fuelLabels["o"]
}

// FuelCodeFromLabel maps a label such as "Bensin" or "BEV" back to its code
func FuelCodeFromLabel(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	for code, l := range fuelLabels {
		if strings.ToLower(l) == s {
			return code
		}
	}
	return FuelCodeLoose(label)
}
