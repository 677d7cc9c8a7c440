package llm

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dapi/neurozeh-auto-service-bot/internal/pricing"
)

const fallbackPrompt = "You are the assistant of an auto repair shop. " +
	"Answer briefly and politely, help the client describe the problem, " +
	"and call detect_service_request whenever the client asks for concrete work."

// BuildSystemPrompt loads the base prompt from path and appends the current
// price list so the model quotes real numbers. A missing prompt file falls
// back to a built-in minimal prompt.
func BuildSystemPrompt(path string, catalog *pricing.Catalog, log *slog.Logger) string {
	if log == nil {
		log = slog.Default()
	}
	base := fallbackPrompt
	if data, err := os.ReadFile(path); err == nil {
		base = strings.TrimSpace(string(data))
	} else {
		log.Warn("system prompt file unavailable, using fallback", "path", path, "error", err)
	}

	prices := FormatPriceList(catalog)
	if prices == "" {
		return base
	}
	return base + "\n\n" + prices
}

// FormatPriceList renders the catalog for the prompt, one service per line
// with all three class prices.
func FormatPriceList(catalog *pricing.Catalog) string {
	if catalog == nil || catalog.Len() == 0 {
		return ""
	}

	// Collapse per-tier entries back into one row per service, keeping
	// catalog order.
	type row struct {
		name   string
		prices [4]string
	}
	var rows []*row
	index := make(map[string]*row)
	for _, e := range catalog.Entries() {
		r, ok := index[e.Name]
		if !ok {
			r = &row{name: e.Name}
			index[e.Name] = r
			rows = append(rows, r)
		}
		if e.Tier >= 1 && e.Tier <= 3 {
			r.prices[e.Tier] = pricing.FormatPrice(e.Price)
		}
	}

	var b strings.Builder
	b.WriteString("Current price list (class 1 / class 2 / class 3):\n")
	for _, r := range rows {
		for i := 1; i <= 3; i++ {
			if r.prices[i] == "" {
				r.prices[i] = pricing.PriceOnRequest
			}
		}
		fmt.Fprintf(&b, "- %s: %s / %s / %s\n", r.name, r.prices[1], r.prices[2], r.prices[3])
	}
	return strings.TrimRight(b.String(), "\n")
}
