package leads

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dapi/neurozeh-auto-service-bot/internal/conversation"
	"github.com/dapi/neurozeh-auto-service-bot/internal/dialog"
	"github.com/dapi/neurozeh-auto-service-bot/internal/markdown"
	"github.com/dapi/neurozeh-auto-service-bot/internal/pricing"
)

// Unresolvable fields in the notification carry this placeholder so the
// operator knows what to ask first.
const needsClarification = "requires clarification"

// Detector assembles leads out of the language model's signal and the
// transcript. Transcript analysis is the authoritative source; the signal
// only fills fields the analysis left empty.
type Detector struct {
	analyzer *dialog.Analyzer
	calc     *pricing.Calculator
	now      func() time.Time
}

// NewDetector wires the detector to its enrichment sources.
func NewDetector(analyzer *dialog.Analyzer, calc *pricing.Calculator) *Detector {
	return &Detector{analyzer: analyzer, calc: calc, now: time.Now}
}

// Build produces a qualified lead for the user's detected service request.
// The transcript should already include the triggering message.
func (d *Detector) Build(userID int64, username, firstName, message string, turns []conversation.Turn, sig Signal) *Lead {
	analysis := d.analyzer.Analyze(turns)

	lead := &Lead{
		ID:         uuid.New().String(),
		UserID:     userID,
		Username:   username,
		FirstName:  firstName,
		Message:    message,
		MakeModel:  analysis.Vehicle.MakeModel,
		Year:       analysis.Vehicle.Year,
		MileageKm:  analysis.Vehicle.MileageKm,
		Tier:       analysis.Vehicle.Tier,
		TierLabel:  analysis.Vehicle.TierLabel,
		Services:   analysis.Services,
		Context:    analysis.Context,
		Confidence: 1.0,
		CreatedAt:  d.now().UTC(),
	}

	if lead.MakeModel == "" && sig.MakeModel != "" {
		lead.MakeModel = sig.MakeModel
		lead.Tier, lead.TierLabel = dialog.Classify(sig.MakeModel)
	}
	if lead.Year == 0 {
		lead.Year = sig.Year
	}
	if len(lead.Services) == 0 {
		lead.Services = sig.Services
	}
	if lead.Context == "" {
		lead.Context = sig.Summary
	}

	lead.Estimate = d.calc.CalculateCost(lead.Services, lead.Tier)
	return lead
}

// Render produces the operator notification in the transport's Markdown
// dialect. Every user-originated string is escaped; the output is stable
// under sanitization. Sections with nothing known are omitted entirely.
func Render(lead *Lead) string {
	var b strings.Builder

	b.WriteString("🔔 **NEW SERVICE REQUEST**\n\n")

	b.WriteString("👤 **Client:** ")
	switch {
	case lead.Username != "":
		handle := strings.TrimPrefix(lead.Username, "@")
		fmt.Fprintf(&b, "[@%s](https://t.me/%s)", handle, handle)
	case lead.FirstName != "":
		b.WriteString(markdown.Escape(lead.FirstName))
	default:
		fmt.Fprintf(&b, "User#%d", lead.UserID)
	}
	fmt.Fprintf(&b, " - `%d`\n\n", lead.UserID)

	b.WriteString("💬 **Message:**\n")
	fmt.Fprintf(&b, "`%s`\n\n", markdown.Escape(lead.Message))

	if lead.MakeModel != "" || lead.Year != 0 || lead.MileageKm != 0 {
		b.WriteString("🚗 **Vehicle:** ")
		if lead.MakeModel != "" {
			b.WriteString(markdown.Escape(lead.MakeModel))
			if lead.TierLabel != "" {
				fmt.Fprintf(&b, " (%s)", lead.TierLabel)
			} else {
				fmt.Fprintf(&b, " (class %s)", needsClarification)
			}
		} else {
			b.WriteString(needsClarification)
		}
		b.WriteByte('\n')
		if lead.Year != 0 {
			b.WriteString("Year: " + strconv.Itoa(lead.Year) + "\n")
		}
		if lead.MileageKm != 0 {
			b.WriteString("Mileage: " + strconv.Itoa(lead.MileageKm) + " km\n")
		}
		b.WriteByte('\n')
	}

	if len(lead.Services) > 0 {
		b.WriteString("🔧 **Requested work:**\n")
		for i, svc := range lead.Services {
			fmt.Fprintf(&b, "%d. %s\n", i+1, markdown.Escape(svc))
		}
		b.WriteByte('\n')
	}

	if est := lead.Estimate; est != nil {
		b.WriteString("💰 **Cost estimate")
		if lead.TierLabel != "" {
			fmt.Fprintf(&b, " (%s)", lead.TierLabel)
		}
		b.WriteString(":**\n")
		for i, item := range est.Items {
			fmt.Fprintf(&b, "%d. %s - %s\n", i+1, markdown.Escape(item.Service), item.Display())
		}
		fmt.Fprintf(&b, "**Total base cost:** %s\n", est.TotalDisplay())
		if est.Note != "" {
			fmt.Fprintf(&b, "_%s_\n", est.Note)
		}
		b.WriteByte('\n')
	}

	if lead.Context != "" {
		b.WriteString("💬 **Dialog context:**\n")
		b.WriteString(markdown.Escape(lead.Context) + "\n\n")
	}

	fmt.Fprintf(&b, "🔗 **Actions:** /answer_%d /close_%d", lead.UserID, lead.UserID)
	return b.String()
}
