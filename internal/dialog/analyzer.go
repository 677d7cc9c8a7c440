// Package dialog extracts structured facts from a chat transcript: the
// vehicle under discussion, the work the client asked about, and the quote
// snippet that gives an operator context.
package dialog

import (
	"strconv"
	"strings"
	"time"

	"github.com/dapi/neurozeh-auto-service-bot/internal/conversation"
)

const (
	minVehicleYear = 1970
	maxMileageKm   = 1_000_000
	maxContextLen  = 200
)

// Vehicle is what the transcript reveals about the client's car. Zero fields
// mean the transcript never mentioned them.
type Vehicle struct {
	MakeModel string
	Year      int
	MileageKm int
	Tier      int
	TierLabel string
}

// Known reports whether any vehicle fact was extracted.
func (v Vehicle) Known() bool {
	return v.MakeModel != "" || v.Year != 0 || v.MileageKm != 0
}

// Analysis is the structured reading of a transcript.
type Analysis struct {
	Vehicle  Vehicle
	Services []string
	Context  string
}

// Analyzer scans conversation transcripts. It is stateless and safe for
// concurrent use.
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer creates an analyzer using the wall clock for year validation.
func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

// Analyze reads the transcript oldest turn first. Only user turns carry
// facts; the first mention of a vehicle attribute wins and later mentions
// never overwrite it.
func (a *Analyzer) Analyze(turns []conversation.Turn) Analysis {
	var out Analysis

	for _, turn := range turns {
		if turn.Role != conversation.RoleUser {
			continue
		}
		text := turn.Text

		if out.Vehicle.MakeModel == "" {
			out.Vehicle.MakeModel = extractMakeModel(text)
		}
		if out.Vehicle.Year == 0 {
			out.Vehicle.Year = a.extractYear(text)
		}
		if out.Vehicle.MileageKm == 0 {
			out.Vehicle.MileageKm = extractMileage(text)
		}
		out.Services = appendServices(out.Services, text)
		out.Context = contextSnippet(text)
	}

	out.Vehicle.Tier, out.Vehicle.TierLabel = Classify(out.Vehicle.MakeModel)
	return out
}

// extractMakeModel finds the first brand mention and, within the same turn,
// a model that narrows it down.
func extractMakeModel(text string) string {
	brand := brandRE.FindString(text)
	if brand == "" {
		return ""
	}
	key := strings.ToLower(brand)
	if re, ok := modelRE[key]; ok {
		if model := re.FindString(text); model != "" {
			return displayName(key) + " " + displayName(strings.ToLower(model))
		}
	}
	return displayName(key)
}

func (a *Analyzer) extractYear(text string) int {
	for _, m := range yearRE.FindAllString(text, -1) {
		year, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if year >= minVehicleYear && year <= a.now().Year()+1 {
			return year
		}
	}
	return 0
}

func extractMileage(text string) int {
	m := mileageRE.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	digits := strings.NewReplacer(" ", "", ",", "").Replace(m[1])
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	if m[2] != "" {
		n *= 1000
	}
	if n <= 0 || n > maxMileageKm {
		return 0
	}
	return n
}

// appendServices adds categories the turn mentions, keeping pattern-table
// order within a turn and skipping categories already collected.
func appendServices(acc []string, text string) []string {
	for _, sp := range servicePatterns {
		if !sp.re.MatchString(text) {
			continue
		}
		if !containsString(acc, sp.category) {
			acc = append(acc, sp.category)
		}
	}
	return acc
}

// contextSnippet returns the turn verbatim, capped for the notification.
func contextSnippet(text string) string {
	runes := []rune(text)
	if len(runes) <= maxContextLen {
		return text
	}
	return string(runes[:maxContextLen-3]) + "..."
}

// Classify resolves a make and model string to a price tier and its label.
func Classify(makeModel string) (int, string) {
	if makeModel == "" {
		return TierUnknown, ""
	}
	lower := strings.ToLower(makeModel)
	for _, entry := range classTable {
		for _, m := range entry.models {
			if strings.Contains(lower, m) {
				return entry.tier, entry.label
			}
		}
		for _, b := range entry.brands {
			if strings.Contains(lower, b) {
				return entry.tier, entry.label
			}
		}
	}
	return TierUnknown, ""
}

// specialNames covers brands and models whose display form is not plain
// title case.
var specialNames = map[string]string{
	"bmw": "BMW", "gle": "GLE", "gls": "GLS", "lx": "LX", "rx": "RX",
	"es": "ES", "x5": "X5", "x7": "X7", "m5": "M5", "xc90": "XC90",
	"xc60": "XC60", "s90": "S90", "cr-v": "CR-V", "rav4": "RAV4",
	"x-trail": "X-Trail",
}

func displayName(lower string) string {
	if s, ok := specialNames[lower]; ok {
		return s
	}
	words := strings.Fields(lower)
	for i, w := range words {
		words[i] = capitalizeHyphenated(w)
	}
	return strings.Join(words, " ")
}

func capitalizeHyphenated(w string) string {
	parts := strings.Split(w, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "-")
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
