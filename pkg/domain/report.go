package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar-date format accepted for report bounds.
const DateLayout = "2006-01-02"

// DefaultReportWindow is the span covered by DefaultDateRange.
const DefaultReportWindow = 30 * 24 * time.Hour

// DateRange bounds a report by calendar day. End is inclusive of the whole
// day. A range with either bound unset does not filter.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses YYYY-MM-DD bounds as UTC midnights. Empty strings
// leave the bound unset.
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange
	var err error
	if s := strings.TrimSpace(start); s != "" {
		if r.Start, err = time.Parse(DateLayout, s); err != nil {
			return DateRange{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
	}
	if e := strings.TrimSpace(end); e != "" {
		if r.End, err = time.Parse(DateLayout, e); err != nil {
			return DateRange{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
	}
	return r, nil
}

// DefaultDateRange covers the thirty days up to and including now's UTC date.
func DefaultDateRange(now time.Time) DateRange {
	end := truncateDay(now.UTC())
	return DateRange{Start: truncateDay(now.UTC().Add(-DefaultReportWindow)), End: end}
}

// Bounded reports whether both bounds are set.
func (r DateRange) Bounded() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// Contains reports whether t falls in [Start, End+1 day).
func (r DateRange) Contains(t time.Time) bool {
	if !r.Bounded() {
		return true
	}
	return !t.Before(r.Start) && t.Before(r.End.AddDate(0, 0, 1))
}

// String renders the range as "start..end".
func (r DateRange) String() string {
	if !r.Bounded() {
		return "all"
	}
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ReportRow is the summed quantity for one product code.
type ReportRow struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// Aggregate sums order quantities by canonical code over the orders inside
// rng, skipping items that do not match filter. Descriptions come from the
// live catalogue, not from the order snapshot. Rows are sorted by quantity,
// largest first; ties keep first-seen order.
func Aggregate(orders []Order, rng DateRange, filter string, catalogue Catalogue) []ReportRow {
	needle := strings.ToLower(filter)
	totals := make(map[string]int)
	var codes []string
	for _, order := range orders {
		if !rng.Contains(order.Date) {
			continue
		}
		for _, item := range order.Items {
			if needle != "" &&
				!strings.Contains(strings.ToLower(item.Code), needle) &&
				!strings.Contains(strings.ToLower(item.Description), needle) {
				continue
			}
			key := CanonicalCode(item.Code)
			if _, seen := totals[key]; !seen {
				codes = append(codes, key)
			}
			totals[key] += item.Quantity
		}
	}
	rows := make([]ReportRow, 0, len(codes))
	for _, code := range codes {
		desc := UnknownReportDescription
		if p, ok := catalogue.Find(code); ok {
			desc = p.Description
		}
		rows = append(rows, ReportRow{Code: code, Description: desc, Quantity: totals[code]})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Quantity > rows[j].Quantity })
	return rows
}
