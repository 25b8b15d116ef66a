package model

import "strings"

// Order summary math for the checkout review step. Display-only: session
// projections are derived from package names and are never authoritative for
// entitlements actually granted after payment.

// Tax applied when the caller asks for it; 875 basis points = 8.75%.
const taxRateBasisPoints = 875

// sessionsPerWeek assumed by the monthly training packages.
const monthlySessionsPerWeek = 4

// fixedSessionPackages maps exact package-name substrings to session counts.
var fixedSessionPackages = []struct {
	token    string
	sessions int
}{
	{"Single Session", 1},
	{"Silver Package", 8},
	{"Gold Package", 20},
	{"Platinum Package", 50},
}

// monthlyPackages maps duration substrings to month counts.
var monthlyPackages = []struct {
	token  string
	months int
}{
	{"3-Month", 3},
	{"6-Month", 6},
	{"9-Month", 9},
	{"12-Month", 12},
}

type SummaryOptions struct {
	IncludeTax bool
}

// SummaryLine is one cart line with its derived session projection.
type SummaryLine struct {
	PackageName     string `json:"packageName"`
	Quantity        int    `json:"quantity"`
	UnitPrice       int64  `json:"unitPrice"`
	OriginalPrice   int64  `json:"originalPrice,omitempty"`
	Discount        int64  `json:"discount"`
	Sessions        int    `json:"sessions"`
	Months          int    `json:"months,omitempty"`
	SessionsPerWeek int    `json:"sessionsPerWeek,omitempty"`
}

type OrderSummary struct {
	Lines         []SummaryLine `json:"lines"`
	Subtotal      int64         `json:"subtotal"`
	Discount      int64         `json:"discount"`
	Tax           int64         `json:"tax"`
	Total         int64         `json:"total"`
	TotalSessions int           `json:"totalSessions"`
}

// ProjectSessions derives the session count for a package name. Exact
// substring matching; unknown names yield zero rather than guessing.
func ProjectSessions(name string, quantity int) (sessions, months, perWeek int) {
	for _, p := range fixedSessionPackages {
		if strings.Contains(name, p.token) {
			return p.sessions * quantity, 0, 0
		}
	}
	for _, p := range monthlyPackages {
		if strings.Contains(name, p.token) {
			weeks := p.months * 4
			return weeks * monthlySessionsPerWeek * quantity, p.months, monthlySessionsPerWeek
		}
	}
	return 0, 0, 0
}

// Summarize derives subtotal/discount/tax/total and the session projection
// from cart line items. Pure and order-independent: no network, no mutation.
func Summarize(cart *Cart, opts SummaryOptions) OrderSummary {
	var out OrderSummary
	if cart == nil {
		return out
	}
	for _, li := range cart.Items {
		sessions, months, perWeek := ProjectSessions(li.PackageName, li.Quantity)
		line := SummaryLine{
			PackageName:     li.PackageName,
			Quantity:        li.Quantity,
			UnitPrice:       li.UnitPrice,
			OriginalPrice:   li.OriginalPrice,
			Discount:        li.Discount(),
			Sessions:        sessions,
			Months:          months,
			SessionsPerWeek: perWeek,
		}
		out.Lines = append(out.Lines, line)
		out.Subtotal += li.UnitPrice * int64(li.Quantity)
		out.Discount += line.Discount
		out.TotalSessions += sessions
	}
	if opts.IncludeTax {
		out.Tax = out.Subtotal * taxRateBasisPoints / 10000
	}
	out.Total = out.Subtotal - out.Discount + out.Tax
	return out
}
