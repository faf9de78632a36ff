package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ExportText renders cart lines as "CODE quantity", one per line, in cart order.
func ExportText(items []CartItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, item.Code+" "+strconv.Itoa(item.Quantity))
	}
	return strings.Join(lines, "\n")
}

// ExportFilename names an export using the calendar date of at in its own location.
func ExportFilename(at time.Time) string {
	return fmt.Sprintf("Scanned_Items_%02d-%02d-%04d.txt", at.Day(), int(at.Month()), at.Year())
}
