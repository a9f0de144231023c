package models

import "strings"

// Categorical dive fields are stored as their raw code. Label maps a code to
// its display label; codes missing from the table are returned unchanged so
// newer clients can send values this service does not know yet.

type Visibility string

const (
	VisibilityPoor      Visibility = "poor"
	VisibilityFair      Visibility = "fair"
	VisibilityGood      Visibility = "good"
	VisibilityExcellent Visibility = "excellent"
)

var visibilityLabels = map[Visibility]string{
	VisibilityPoor:      "Poor (under 5 m)",
	VisibilityFair:      "Fair (5-10 m)",
	VisibilityGood:      "Good (10-20 m)",
	VisibilityExcellent: "Excellent (over 20 m)",
}

func (v Visibility) Label() string { return lookupLabel(visibilityLabels, v) }

type DiveType string

const (
	DiveTypeShore    DiveType = "shore"
	DiveTypeBoat     DiveType = "boat"
	DiveTypeReef     DiveType = "reef"
	DiveTypeWreck    DiveType = "wreck"
	DiveTypeCave     DiveType = "cave"
	DiveTypeCavern   DiveType = "cavern"
	DiveTypeIce      DiveType = "ice"
	DiveTypeNight    DiveType = "night"
	DiveTypeDrift    DiveType = "drift"
	DiveTypeDeep     DiveType = "deep"
	DiveTypeTraining DiveType = "training"
)

var diveTypeLabels = map[DiveType]string{
	DiveTypeShore:    "Shore dive",
	DiveTypeBoat:     "Boat dive",
	DiveTypeReef:     "Reef dive",
	DiveTypeWreck:    "Wreck dive",
	DiveTypeCave:     "Cave dive",
	DiveTypeCavern:   "Cavern dive",
	DiveTypeIce:      "Ice dive",
	DiveTypeNight:    "Night dive",
	DiveTypeDrift:    "Drift dive",
	DiveTypeDeep:     "Deep dive",
	DiveTypeTraining: "Training dive",
}

func (d DiveType) Label() string { return lookupLabel(diveTypeLabels, d) }

// IsOverhead reports whether the dive type implies a ceiling between the
// diver and the surface.
func (d DiveType) IsOverhead() bool {
	switch d {
	case DiveTypeCave, DiveTypeCavern, DiveTypeIce:
		return true
	}
	return false
}

type WaterType string

const (
	WaterTypeSalt     WaterType = "salt"
	WaterTypeFresh    WaterType = "fresh"
	WaterTypeBrackish WaterType = "brackish"
)

var waterTypeLabels = map[WaterType]string{
	WaterTypeSalt:     "Salt water",
	WaterTypeFresh:    "Fresh water",
	WaterTypeBrackish: "Brackish water",
}

func (w WaterType) Label() string { return lookupLabel(waterTypeLabels, w) }

type Exposure string

const (
	ExposureNone       Exposure = "none"
	ExposureRashGuard  Exposure = "rash_guard"
	ExposureShorty     Exposure = "shorty"
	ExposureWetsuit3mm Exposure = "wetsuit_3mm"
	ExposureWetsuit5mm Exposure = "wetsuit_5mm"
	ExposureWetsuit7mm Exposure = "wetsuit_7mm"
	ExposureSemiDry    Exposure = "semi_dry"
	ExposureDrysuit    Exposure = "drysuit"
)

var exposureLabels = map[Exposure]string{
	ExposureNone:       "No exposure protection",
	ExposureRashGuard:  "Rash guard",
	ExposureShorty:     "Shorty wetsuit",
	ExposureWetsuit3mm: "3 mm wetsuit",
	ExposureWetsuit5mm: "5 mm wetsuit",
	ExposureWetsuit7mm: "7 mm wetsuit",
	ExposureSemiDry:    "Semi-dry suit",
	ExposureDrysuit:    "Drysuit",
}

func (e Exposure) Label() string { return lookupLabel(exposureLabels, e) }

type Current string

const (
	CurrentNone     Current = "none"
	CurrentLight    Current = "light"
	CurrentModerate Current = "moderate"
	CurrentStrong   Current = "strong"
)

var currentLabels = map[Current]string{
	CurrentNone:     "No current",
	CurrentLight:    "Light current",
	CurrentModerate: "Moderate current",
	CurrentStrong:   "Strong current",
}

func (c Current) Label() string { return lookupLabel(currentLabels, c) }

type GasMix string

const (
	GasAir    GasMix = "air"
	GasEAN32  GasMix = "ean32"
	GasEAN36  GasMix = "ean36"
	GasNitrox GasMix = "nitrox"
	GasTrimix GasMix = "trimix"
	GasHeliox GasMix = "heliox"
	GasOxygen GasMix = "oxygen"
)

var gasLabels = map[GasMix]string{
	GasAir:    "Air",
	GasEAN32:  "Nitrox (EAN32)",
	GasEAN36:  "Nitrox (EAN36)",
	GasNitrox: "Nitrox",
	GasTrimix: "Trimix",
	GasHeliox: "Heliox",
	GasOxygen: "Oxygen",
}

func (g GasMix) Label() string { return lookupLabel(gasLabels, g) }

// IsEnriched reports whether the mix carries more oxygen than air.
func (g GasMix) IsEnriched() bool {
	switch g {
	case GasEAN32, GasEAN36, GasNitrox, GasOxygen:
		return true
	}
	return false
}

type Certification string

const (
	CertOpenWater  Certification = "open_water"
	CertAdvanced   Certification = "advanced"
	CertRescue     Certification = "rescue"
	CertDivemaster Certification = "divemaster"
	CertInstructor Certification = "instructor"
	CertTechnical  Certification = "technical"
)

var certificationLabels = map[Certification]string{
	CertOpenWater:  "Open Water Diver",
	CertAdvanced:   "Advanced Open Water Diver",
	CertRescue:     "Rescue Diver",
	CertDivemaster: "Divemaster",
	CertInstructor: "Instructor",
	CertTechnical:  "Technical Diver",
}

func (c Certification) Label() string { return lookupLabel(certificationLabels, c) }

// Parse functions normalise a raw code (case, spaces, hyphens and a few
// legacy spellings). Unknown codes are returned trimmed but otherwise as sent.

func ParseVisibility(raw string) Visibility       { return parseCode(visibilityLabels, raw) }
func ParseDiveType(raw string) DiveType           { return parseCode(diveTypeLabels, raw) }
func ParseWaterType(raw string) WaterType         { return parseCode(waterTypeLabels, raw) }
func ParseExposure(raw string) Exposure           { return parseCode(exposureLabels, raw) }
func ParseCurrent(raw string) Current             { return parseCode(currentLabels, raw) }
func ParseGasMix(raw string) GasMix               { return parseCode(gasLabels, raw) }
func ParseCertification(raw string) Certification { return parseCode(certificationLabels, raw) }

var codeAliases = map[string]string{
	"saltwater":           "salt",
	"salt_water":          "salt",
	"sea":                 "salt",
	"freshwater":          "fresh",
	"fresh_water":         "fresh",
	"rashguard":           "rash_guard",
	"3mm":                 "wetsuit_3mm",
	"5mm":                 "wetsuit_5mm",
	"7mm":                 "wetsuit_7mm",
	"semidry":             "semi_dry",
	"dry_suit":            "drysuit",
	"dry":                 "drysuit",
	"ean_32":              "ean32",
	"eanx32":              "ean32",
	"nitrox32":            "ean32",
	"ean_36":              "ean36",
	"eanx36":              "ean36",
	"nitrox36":            "ean36",
	"enriched_air":        "nitrox",
	"ow":                  "open_water",
	"openwater":           "open_water",
	"aow":                 "advanced",
	"advanced_open_water": "advanced",
	"dm":                  "divemaster",
	"tec":                 "technical",
	"tech":                "technical",
}

func parseCode[K ~string](table map[K]string, raw string) K {
	trimmed := strings.TrimSpace(raw)
	code := strings.ToLower(trimmed)
	code = strings.NewReplacer(" ", "_", "-", "_").Replace(code)
	if alias, ok := codeAliases[code]; ok {
		code = alias
	}
	if _, ok := table[K(code)]; ok {
		return K(code)
	}
	return K(trimmed)
}

func lookupLabel[K ~string](table map[K]string, code K) string {
	if label, ok := table[code]; ok {
		return label
	}
	return string(code)
}
