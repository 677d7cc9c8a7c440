package pricing

import (
	"strconv"
	"strings"
)

// DefaultEstimateNote accompanies every estimate.
const DefaultEstimateNote = "Final cost is determined after diagnostics"

// LineItem is one requested service with its resolved price. Priced is false
// for services the catalog cannot quote.
type LineItem struct {
	Service string
	Price   int
	Priced  bool
}

// Display renders the line's price for the notification.
func (li LineItem) Display() string {
	if !li.Priced {
		return PriceOnRequest
	}
	return FormatPrice(li.Price)
}

// Estimate is the priced breakdown of a service request.
type Estimate struct {
	Items []LineItem
	Total int
	Note  string
}

// TotalDisplay renders the estimate's total. When nothing could be priced the
// total itself is on request.
func (e *Estimate) TotalDisplay() string {
	if e.Total == 0 {
		return PriceOnRequest
	}
	return FormatPrice(e.Total)
}

// Calculator prices a list of requested services against the catalog.
type Calculator struct {
	catalog *Catalog
}

// NewCalculator creates a calculator over the given catalog.
func NewCalculator(catalog *Catalog) *Calculator {
	return &Calculator{catalog: catalog}
}

// CalculateCost builds an estimate for the requested services at the given
// vehicle tier. Returns nil when there is nothing to price: no services, or
// an unknown tier.
func (c *Calculator) CalculateCost(services []string, tier int) *Estimate {
	if len(services) == 0 || tier <= 0 {
		return nil
	}

	est := &Estimate{Note: DefaultEstimateNote}
	for _, svc := range services {
		entry, ok := c.catalog.FindPrice(svc, tier)
		if !ok {
			est.Items = append(est.Items, LineItem{Service: svc})
			continue
		}
		est.Items = append(est.Items, LineItem{Service: entry.Name, Price: entry.Price, Priced: true})
		est.Total += entry.Price
	}
	return est
}

// FormatPrice renders an amount with space-grouped thousands and the
// currency suffix, e.g. 12500 becomes "12 500 rub.".
func FormatPrice(amount int) string {
	s := strconv.Itoa(amount)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	return out + " rub."
}
