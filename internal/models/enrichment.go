package models

// Category classifies an enriched detection.
type Category string

// The fixed category set the enrichment model may answer with. Unknown is
// reserved for failed analysis.
const (
	CategoryTech    Category = "tech"
	CategoryCommon  Category = "common"
	CategoryPlant   Category = "plant"
	CategoryAnimal  Category = "animal"
	CategoryPerson  Category = "person"
	CategoryPlace   Category = "place"
	CategoryWater   Category = "water"
	CategoryHazard  Category = "hazard"
	CategoryUnknown Category = "unknown"
)

// EnrichmentResult is the transient output of a label enrichment call.
// It is merged into a CapturedObject or returned to the caller, never
// persisted on its own.
type EnrichmentResult struct {
	Description string   `json:"description"`
	Category    Category `json:"category"`
}
