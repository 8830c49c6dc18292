// Package payload renders the text encoded into a customer's scan code.
package payload

import (
	"fmt"
	"strings"
	"time"

	"github.com/hongminglow/loyalty-ledger/internal/models"
)

// None marks a record that has no transaction yet.
const None = "none"

// Encode returns newline-separated "label: value" lines for rec.
func Encode(rec models.CustomerRecord) string {
	var b strings.Builder
	writeLine(&b, "Name", rec.Name)
	writeLine(&b, "Mobile", rec.Mobile)
	writeLine(&b, "Points", fmt.Sprintf("%d", rec.TotalPoints))
	writeLine(&b, "Last Transaction", lastTransaction(rec.LastTransaction))
	return strings.TrimSuffix(b.String(), "\n")
}

func lastTransaction(lt *models.LastTransaction) string {
	if lt == nil {
		return None
	}
	return fmt.Sprintf("%s (%+d points) at %s",
		lt.Description, lt.PointsDelta, lt.Timestamp.UTC().Format(time.RFC3339))
}

func writeLine(b *strings.Builder, label, value string) {
	// Newlines inside a value would forge extra labels.
	value = strings.Join(strings.Fields(value), " ")
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}
