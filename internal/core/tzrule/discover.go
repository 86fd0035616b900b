package tzrule

import (
	"time"

	perr "tzedge/internal/platform/errors"
)

func zoneOffset(t time.Time) int {
	_, offset := t.Zone()
	return offset
}

// Discover lists the offset changes of loc in [from, to) by sampling every step and
// bisecting each changed window down to the second. step must stay below the shortest
// gap between two transitions or a pair can cancel out unseen
func Discover(loc *time.Location, from, to time.Time, step time.Duration) ([]Transition, error) {
	if loc == nil {
		return nil, perr.InvalidArgf("nil location")
	}
	if step < time.Second {
		return nil, perr.InvalidArgf("scan step %s is below one second", step)
	}
	if !to.After(from) {
		return nil, perr.InvalidArgf("empty scan window %s..%s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	var out []Transition
	start := from.In(loc).Truncate(time.Second)
	for start.Before(to) {
		end := start.Add(step)
		if end.After(to) {
			end = to.In(loc).Truncate(time.Second)
			if !end.After(start) {
				break
			}
		}
		if zoneOffset(start) != zoneOffset(end) {
			at := bisect(start, end)
			name, off := at.Zone()
			out = append(out, Transition{
				At: at.UTC(),
				Period: Period{
					OffsetMinutes: off / 60,
					Abbrev:        name,
					DST:           at.IsDST(),
				},
			})
		}
		start = end
	}
	return out, nil
}

// bisect narrows [start, end] to the first second carrying end's offset
func bisect(start, end time.Time) time.Time {
	for {
		diff := end.Sub(start)
		if diff <= time.Second {
			return end
		}
		mid := start.Add((diff / 2).Truncate(time.Second))
		if zoneOffset(start) == zoneOffset(mid) {
			start = mid
		} else {
			end = mid
		}
	}
}

// FromLocation builds a Rule for loc over [from, to) using Discover
func FromLocation(loc *time.Location, from, to time.Time, step time.Duration) (Rule, error) {
	trs, err := Discover(loc, from, to, step)
	if err != nil {
		return Rule{}, err
	}
	name, off := from.In(loc).Zone()
	r := Rule{
		Zone:        loc.String(),
		Initial:     Period{OffsetMinutes: off / 60, Abbrev: name, DST: from.In(loc).IsDST()},
		Transitions: trs,
	}
	return r, r.Validate()
}
