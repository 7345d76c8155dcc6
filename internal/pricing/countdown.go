package pricing

import (
	"time"

	"pranzo-storefront/internal/domain"
)

// Countdown is the remaining time of a special offer.
type Countdown struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Expired bool `json:"expired"`
}

// RemainingOfferTime splits the time until offerEndsAt. Products without an
// active offer report Expired. Callers displaying it refresh at least once a second.
func RemainingOfferTime(p domain.Product, now time.Time) Countdown {
	if !IsOfferActive(p, now) {
		return Countdown{Expired: true}
	}
	left := int64(p.OfferEndsAt.Sub(now) / time.Second)
	return Countdown{
		Days:    int(left / 86400),
		Hours:   int(left % 86400 / 3600),
		Minutes: int(left % 3600 / 60),
		Seconds: int(left % 60),
	}
}

// Total returns the remaining duration, truncated to seconds.
func (c Countdown) Total() time.Duration {
	if c.Expired {
		return 0
	}
	return time.Duration(c.Days)*24*time.Hour +
		time.Duration(c.Hours)*time.Hour +
		time.Duration(c.Minutes)*time.Minute +
		time.Duration(c.Seconds)*time.Second
}
