package common

// Level3ProductCategory groups the derived Level-III products shown to a
// viewer.
type Level3ProductCategory int

const (
	Level3CategoryReflectivity Level3ProductCategory = iota
	Level3CategoryVelocity
	Level3CategorySpectrumWidth
	Level3CategoryDifferentialReflectivity
	Level3CategoryCorrelationCoefficient
	Level3CategorySpecificDifferentialPhase
	Level3CategoryPrecipitation
)

// Level3ProductCategoryMap maps a category to its products and each
// product's available AWIPS identifiers.
type Level3ProductCategoryMap map[Level3ProductCategory]map[string][]string

// DefaultLevel3Product is the product used for Level-III discovery.
const DefaultLevel3Product = "N0B"

var level3CategoryNames = map[Level3ProductCategory]string{
	Level3CategoryReflectivity:              "Reflectivity",
	Level3CategoryVelocity:                  "Velocity",
	Level3CategorySpectrumWidth:             "Spectrum Width",
	Level3CategoryDifferentialReflectivity:  "Differential Reflectivity",
	Level3CategoryCorrelationCoefficient:    "Correlation Coefficient",
	Level3CategorySpecificDifferentialPhase: "Specific Differential Phase",
	Level3CategoryPrecipitation:             "Precipitation",
}

var level3ProductsByCategory = map[Level3ProductCategory][]string{
	Level3CategoryReflectivity:              {"Digital Base Reflectivity", "Base Reflectivity"},
	Level3CategoryVelocity:                  {"Digital Base Velocity", "Base Velocity"},
	Level3CategorySpectrumWidth:             {"Digital Base Spectrum Width"},
	Level3CategoryDifferentialReflectivity:  {"Digital Differential Reflectivity"},
	Level3CategoryCorrelationCoefficient:    {"Digital Correlation Coefficient"},
	Level3CategorySpecificDifferentialPhase: {"Digital Specific Differential Phase"},
	Level3CategoryPrecipitation:             {"Digital Accumulation Array", "Storm Total Accumulation"},
}

var level3AwipsIDsByProduct = map[string][]string{
	"Digital Base Reflectivity":           {"N0B", "N1B", "N2B", "N3B"},
	"Base Reflectivity":                   {"N0R", "N1R", "N2R", "N3R"},
	"Digital Base Velocity":               {"N0G", "N1G", "N2G", "N3G"},
	"Base Velocity":                       {"N0V", "N1V", "N2V", "N3V"},
	"Digital Base Spectrum Width":         {"NSW"},
	"Digital Differential Reflectivity":   {"N0X", "N1X", "N2X", "N3X"},
	"Digital Correlation Coefficient":     {"N0C", "N1C", "N2C", "N3C"},
	"Digital Specific Differential Phase": {"N0K", "N1K", "N2K", "N3K"},
	"Digital Accumulation Array":          {"DAA"},
	"Storm Total Accumulation":            {"DTA"},
}

// Level3Categories returns all product categories in display order.
func Level3Categories() []Level3ProductCategory {
	return []Level3ProductCategory{
		Level3CategoryReflectivity,
		Level3CategoryVelocity,
		Level3CategorySpectrumWidth,
		Level3CategoryDifferentialReflectivity,
		Level3CategoryCorrelationCoefficient,
		Level3CategorySpecificDifferentialPhase,
		Level3CategoryPrecipitation,
	}
}

// GetLevel3CategoryName returns the display name for a category.
func GetLevel3CategoryName(category Level3ProductCategory) string {
	return level3CategoryNames[category]
}

// GetLevel3ProductsByCategory returns the products in a category.
func GetLevel3ProductsByCategory(category Level3ProductCategory) []string {
	return level3ProductsByCategory[category]
}

// GetLevel3AwipsIDsByProduct returns the AWIPS identifiers for a product.
func GetLevel3AwipsIDsByProduct(product string) []string {
	return level3AwipsIDsByProduct[product]
}
