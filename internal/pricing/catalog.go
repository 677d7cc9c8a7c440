// Package pricing loads the shop's price list and produces cost estimates
// for requested work, priced per vehicle class tier.
package pricing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// PriceOnRequest marks a service whose price is not fixed in the catalog.
const PriceOnRequest = "on request"

// Entry is one priced service for one vehicle tier.
type Entry struct {
	Name  string
	Tier  int
	Price int
}

// sectionPrefixes marks rows that structure the CSV for humans rather than
// carry data. Matching is case-insensitive on the first cell.
var sectionPrefixes = []string{
	"price list",
	"all prices",
	"painting",
	"rustproofing",
	"antichrome",
	"additional services",
	"additional work",
}

// Catalog is the loaded price list. A lookup miss is an expected outcome,
// not an error: unknown services are quoted as PriceOnRequest downstream.
type Catalog struct {
	entries []Entry
	log     *slog.Logger
}

// NewCatalog builds a catalog from pre-parsed entries.
func NewCatalog(entries []Entry, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{entries: entries, log: log}
}

// LoadCatalog reads the CSV price list at path. Any load failure degrades to
// an empty catalog so the bot keeps answering, with every price falling back
// to PriceOnRequest.
func LoadCatalog(path string, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		log.Warn("price list unavailable, using empty catalog", "path", path, "error", err)
		return NewCatalog(nil, log)
	}
	defer f.Close()

	entries, err := parseCSV(f)
	if err != nil {
		log.Warn("price list unreadable, using empty catalog", "path", path, "error", err)
		return NewCatalog(nil, log)
	}
	log.Info("price list loaded", "path", path, "entries", len(entries))
	return NewCatalog(entries, log)
}

// parseCSV turns the raw price list into entries. Rows are service name
// followed by one price column per tier; header and section rows are skipped.
func parseCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var entries []Entry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read price row: %w", err)
		}
		if !isDataRow(record) {
			continue
		}
		name := strings.TrimSpace(record[0])
		for tier := 1; tier < len(record); tier++ {
			price, ok := parsePrice(record[tier])
			if !ok {
				continue
			}
			entries = append(entries, Entry{Name: name, Tier: tier, Price: price})
		}
	}
	return entries, nil
}

// isDataRow reports whether the record carries a priced service. The first
// two cells must be non-empty and the first cell must not open a section.
func isDataRow(record []string) bool {
	if len(record) < 2 {
		return false
	}
	first := strings.TrimSpace(record[0])
	second := strings.TrimSpace(record[1])
	if first == "" || second == "" {
		return false
	}
	lower := strings.ToLower(first)
	// The column-header row names the tiers instead of pricing a service.
	if lower == "service" {
		return false
	}
	for _, prefix := range sectionPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

// parsePrice extracts the numeric value from a price cell. Cells may carry a
// "from" qualifier, currency words or digit grouping; everything but digits
// is dropped. A cell with no digits has no fixed price.
func parsePrice(cell string) (int, bool) {
	s := strings.TrimSpace(cell)
	if rest, ok := cutPrefixFold(s, "from"); ok {
		s = rest
	}
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

// Len reports how many priced entries the catalog holds.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns the loaded entries in file order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// FindPrice resolves a service name to its catalog entry for the given tier.
// Exact case-insensitive matches win; otherwise a fuzzy pass accepts entries
// where either name's words contain the other's. Returns false on a miss.
func (c *Catalog) FindPrice(name string, tier int) (Entry, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Entry{}, false
	}

	for _, e := range c.entries {
		if e.Tier == tier && strings.ToLower(strings.TrimSpace(e.Name)) == needle {
			return e, true
		}
	}
	for _, e := range c.entries {
		if e.Tier != tier {
			continue
		}
		have := strings.ToLower(strings.TrimSpace(e.Name))
		if wordsContain(have, needle) || wordsContain(needle, have) {
			return e, true
		}
	}
	return Entry{}, false
}

// wordsContain reports whether every word of sub occurs in s.
func wordsContain(s, sub string) bool {
	words := strings.Fields(sub)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}
