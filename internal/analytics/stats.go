package analytics

import (
	"LinkPulse-Backend/internal/domain"
	"fmt"
	"time"
)

// StatsView holds the reporting fields derived from a stored link at query
// time. Nothing in here is persisted.
type StatsView struct {
	IsActive         bool   `json:"is_active"`
	TimeRemaining    string `json:"time_remaining"`     // "<H> hours <M> minutes", truncated
	ClickThroughRate string `json:"click_through_rate"` // "66.67%", exactly "0%" for zero clicks
}

// IsActive reports whether the link is still live at now. The boundary is
// strict: a link is inactive from the exact expiry instant onward.
func IsActive(link *domain.Link, now time.Time) bool {
	return now.Before(link.ExpiresAt)
}

// Project derives the read-only stats view for a link. Read paths serve
// expired links too, so an expired record simply projects as inactive with
// zero time remaining and its last recorded counters.
func Project(link *domain.Link, now time.Time) StatsView {
	return StatsView{
		IsActive:         IsActive(link, now),
		TimeRemaining:    formatRemaining(link.ExpiresAt.Sub(now)),
		ClickThroughRate: formatCTR(link.UniqueClicks, link.Clicks),
	}
}

// formatRemaining renders a duration as whole hours and whole minutes,
// truncated rather than rounded, with a floor of zero.
func formatRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	hours := int(remaining / time.Hour)
	minutes := int(remaining % time.Hour / time.Minute)
	return fmt.Sprintf("%d hours %d minutes", hours, minutes)
}

// formatCTR renders unique/total as a percentage with two decimal places.
// Zero clicks is a legitimate state, not an error: the rate is "0%" exactly.
func formatCTR(unique, clicks uint64) string {
	if clicks == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(unique)/float64(clicks)*100)
}
