package awips

import "regexp"

// ThreatCategory is the impact-based warning damage threat tag.
type ThreatCategory int

const (
	ThreatCategoryBase ThreatCategory = iota
	ThreatCategorySignificant
	ThreatCategoryConsiderable
	ThreatCategoryDestructive
	ThreatCategoryCatastrophic
	ThreatCategoryUnknown
)

var threatCategoryNames = map[ThreatCategory]string{
	ThreatCategoryBase:         "BASE",
	ThreatCategorySignificant:  "SIGNIFICANT",
	ThreatCategoryConsiderable: "CONSIDERABLE",
	ThreatCategoryDestructive:  "DESTRUCTIVE",
	ThreatCategoryCatastrophic: "CATASTROPHIC",
	ThreatCategoryUnknown:      "UNKNOWN",
}

var threatCategoriesByName = map[string]ThreatCategory{
	"BASE":         ThreatCategoryBase,
	"SIGNIFICANT":  ThreatCategorySignificant,
	"CONSIDERABLE": ThreatCategoryConsiderable,
	"DESTRUCTIVE":  ThreatCategoryDestructive,
	"CATASTROPHIC": ThreatCategoryCatastrophic,
}

// GetThreatCategory maps a tag name to its category; unrecognized names
// map to Unknown.
func GetThreatCategory(name string) ThreatCategory {
	if category, ok := threatCategoriesByName[name]; ok {
		return category
	}
	return ThreatCategoryUnknown
}

// GetThreatCategoryName returns the tag name for a category.
func GetThreatCategoryName(category ThreatCategory) string {
	return threatCategoryNames[category]
}

var reDamageThreat = regexp.MustCompile(
	`^(?:TORNADO|THUNDERSTORM|FLASH FLOOD) DAMAGE THREAT\.\.\.([A-Z]+)`)

// ThreatCategory scans the segment content for a damage threat tag. A
// segment without one is Base.
func (s *Segment) ThreatCategory() ThreatCategory {
	for _, line := range s.ProductContent {
		if m := reDamageThreat.FindStringSubmatch(line); m != nil {
			return GetThreatCategory(m[1])
		}
	}
	return ThreatCategoryBase
}
