package dialog

import "regexp"

// Vehicle class tiers. The tier picks the price column of the catalog.
const (
	TierUnknown = 0
	TierEconomy = 1
	TierMiddle  = 2
	TierPremium = 3
)

// classEntry maps brands and models to a price tier. Entries are checked in
// order; the first brand or model hit wins.
type classEntry struct {
	tier   int
	label  string
	brands []string
	models []string
}

var classTable = []classEntry{
	{
		tier:   TierEconomy,
		label:  "small and mid-size cars",
		brands: []string{"lada", "daewoo", "renault", "chevrolet"},
		models: []string{"rio", "solaris", "logan", "aveo", "granta", "kalina", "vesta", "priora", "almera", "sandero"},
	},
	{
		tier:   TierMiddle,
		label:  "business class and crossovers",
		brands: []string{"toyota", "honda", "hyundai", "kia", "nissan"},
		models: []string{"camry", "accord", "optima", "creta", "qashqai", "sorento", "tucson", "sportage", "elantra", "sonata"},
	},
	{
		tier:   TierPremium,
		label:  "premium, SUVs and minivans",
		brands: []string{"bmw", "mercedes", "land rover", "volvo", "lexus"},
		models: []string{"7-series", "s-class", "range rover", "xc90", "lx", "land cruiser", "prado", "x5", "x7", "gle", "gls"},
	},
}

// TierLabel returns the display label for a tier, empty for TierUnknown.
func TierLabel(tier int) string {
	for _, entry := range classTable {
		if entry.tier == tier {
			return entry.label
		}
	}
	return ""
}

var brandRE = regexp.MustCompile(`(?i)\b(lada|daewoo|renault|chevrolet|toyota|honda|hyundai|kia|nissan|bmw|mercedes|land rover|volvo|lexus|volkswagen|skoda|ford|mazda|mitsubishi|subaru|audi|opel|peugeot|citroen)\b`)

// modelRE narrows a detected brand to a concrete model mentioned in the same
// turn. Only brands with tier-relevant models are listed.
var modelRE = map[string]*regexp.Regexp{
	"lada":      regexp.MustCompile(`(?i)\b(granta|kalina|vesta|priora)\b`),
	"renault":   regexp.MustCompile(`(?i)\b(logan|sandero)\b`),
	"chevrolet": regexp.MustCompile(`(?i)\b(aveo)\b`),
	"toyota":    regexp.MustCompile(`(?i)\b(camry|corolla|rav4|land cruiser|prado)\b`),
	"honda":     regexp.MustCompile(`(?i)\b(accord|civic|cr-v)\b`),
	"hyundai":   regexp.MustCompile(`(?i)\b(solaris|creta|tucson|elantra|sonata)\b`),
	"kia":       regexp.MustCompile(`(?i)\b(rio|optima|sorento|sportage)\b`),
	"nissan":    regexp.MustCompile(`(?i)\b(almera|qashqai|x-trail)\b`),
	"bmw":       regexp.MustCompile(`(?i)\b(7-series|x5|x7|m5)\b`),
	"mercedes":  regexp.MustCompile(`(?i)\b(s-class|gle|gls|e-class)\b`),
	"lexus":     regexp.MustCompile(`(?i)\b(lx|rx|es)\b`),
	"volvo":     regexp.MustCompile(`(?i)\b(xc90|xc60|s90)\b`),
	"land rover": regexp.MustCompile(`(?i)\b(range rover|defender|discovery)\b`),
}

var (
	yearRE    = regexp.MustCompile(`\b(19[7-9]\d|20\d{2})\b`)
	mileageRE = regexp.MustCompile(`(?i)\b(\d{1,3}(?:[ ,]\d{3})+|\d+)\s*(k\b|thousand)?\s*(?:km|kms|kilometers)\b`)
)

// servicePattern pairs a work category with the phrases that mention it.
// Patterns are evaluated in order and the matched categories keep that order.
type servicePattern struct {
	category string
	re       *regexp.Regexp
}

var servicePatterns = []servicePattern{
	{"Diagnostics", regexp.MustCompile(`(?i)\bdiagnos|\bcheck(?:[- ]?up)?\b|\binspect`)},
	{"Repair", regexp.MustCompile(`(?i)\brepair|\bfix\b|\bbroken\b`)},
	{"Replacement", regexp.MustCompile(`(?i)\breplac|\bswap\b`)},
	{"Maintenance", regexp.MustCompile(`(?i)\bmaintenance\b|\bservicing\b|\bscheduled service\b`)},
	{"Painting", regexp.MustCompile(`(?i)\bpaint|\brepaint`)},
	{"Rustproofing", regexp.MustCompile(`(?i)\brust|\bcorrosion|\banticorrosion`)},
	{"Brakes", regexp.MustCompile(`(?i)\bbrake`)},
	{"Suspension", regexp.MustCompile(`(?i)\bsuspension\b|\bshock absorber|\bstrut\b`)},
	{"Engine", regexp.MustCompile(`(?i)\bengine\b|\bmotor\b`)},
	{"Transmission", regexp.MustCompile(`(?i)\btransmission\b|\bgearbox\b|\bclutch\b`)},
	{"Body", regexp.MustCompile(`(?i)\bbodywork\b|\bbody\b|\bdent\b|\bbumper\b`)},
	{"Electrics", regexp.MustCompile(`(?i)\belectric|\bwiring\b|\bbattery\b`)},
	{"Tires", regexp.MustCompile(`(?i)\btire|\btyre|\bwheel\b`)},
	{"Oil", regexp.MustCompile(`(?i)\boil\b`)},
	{"Filters", regexp.MustCompile(`(?i)\bfilter`)},
}
