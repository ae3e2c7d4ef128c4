package analytics

import (
	"LinkPulse-Backend/internal/domain"
	"errors"
	"time"
)

// ErrLinkExpired indicates a click against a link past its expiry.
// The caller must not persist any mutation when this is returned.
var ErrLinkExpired = errors.New("link has expired")

// ApplyClick applies a single click event to a link snapshot. It is pure
// computation over the copy handed in by the storage layer's update path:
// no I/O, no clock reads beyond the now argument.
//
// Accounting rules:
//   - an expired link rejects the click and stays untouched
//   - clicks always increments
//   - a fingerprint not seen before is added to clickers and increments
//     unique_clicks, so unique_clicks <= clicks holds after every call
//   - a non-empty campaign overwrites the stored label; an empty one is ignored
//   - last_accessed_at is set on the first click and moved on every click
//
// The fingerprint is opaque: derivation from request metadata happens at the
// HTTP boundary and never leaks in here.
func ApplyClick(link *domain.Link, fingerprint, campaign string, now time.Time) error {
	if link.IsExpired(now) {
		return ErrLinkExpired
	}

	link.Clicks++
	if !link.HasClicker(fingerprint) {
		link.AddClicker(fingerprint)
		link.UniqueClicks++
	}
	if campaign != "" {
		link.Campaign = campaign
	}
	link.LastAccessedAt = &now

	return nil
}
