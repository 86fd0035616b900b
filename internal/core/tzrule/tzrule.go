// Package tzrule holds explicit, injectable transition tables for a zone.
// Conversion reads these tables only; the process-wide tz database is never consulted
package tzrule

import (
	"time"

	perr "tzedge/internal/platform/errors"
)

// Period is one offset regime
type Period struct {
	OffsetMinutes int    `json:"offset_minutes"`
	Abbrev        string `json:"abbrev"`
	DST           bool   `json:"dst"`
}

// Offset returns the period offset as a duration east of UTC
func (p Period) Offset() time.Duration { return time.Duration(p.OffsetMinutes) * time.Minute }

// Transition switches to Period from the UTC instant At onward
type Transition struct {
	At time.Time `json:"at"`
	Period
}

// Rule is the ordered transition table for one zone.
// Initial is in effect before the first transition
type Rule struct {
	Zone        string       `json:"zone"`
	Initial     Period       `json:"initial"`
	Transitions []Transition `json:"transitions"`
}

// Validate checks the zone id and that transitions strictly ascend and actually change the offset
func (r Rule) Validate() error {
	if r.Zone == "" {
		return perr.InvalidRulef("rule has no zone id")
	}
	prev := r.Initial
	for i, tr := range r.Transitions {
		if i > 0 && !tr.At.After(r.Transitions[i-1].At) {
			return perr.InvalidRulef("%s: transition %d at %s is not after %s",
				r.Zone, i, tr.At.UTC().Format(time.RFC3339), r.Transitions[i-1].At.UTC().Format(time.RFC3339))
		}
		if tr.OffsetMinutes == prev.OffsetMinutes {
			return perr.InvalidRulef("%s: transition %d keeps offset %d", r.Zone, i, tr.OffsetMinutes)
		}
		prev = tr.Period
	}
	return nil
}

// At returns the regime in effect at the UTC instant t
func (r Rule) At(t time.Time) Period {
	p := r.Initial
	for _, tr := range r.Transitions {
		if t.Before(tr.At) {
			break
		}
		p = tr.Period
	}
	return p
}

var (
	est = Period{OffsetMinutes: -300, Abbrev: "EST"}
	edt = Period{OffsetMinutes: -240, Abbrev: "EDT", DST: true}
)

// NewYorkZone is the one zone modeled out of the box
const NewYorkZone = "America/New_York"

// NewYork2023 is the America/New_York table around the 2023 spring-forward:
// at 07:00Z on 2023-03-12 the local clock jumps from 02:00 EST to 03:00 EDT
func NewYork2023() Rule {
	return Rule{
		Zone:    NewYorkZone,
		Initial: est,
		Transitions: []Transition{
			{At: time.Date(2023, 3, 12, 7, 0, 0, 0, time.UTC), Period: edt},
		},
	}
}
