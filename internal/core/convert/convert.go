// Package convert turns civil date-times into UTC instants using explicit
// transition tables and one documented policy for skipped and repeated wall times.
//
// Gap policy: a wall time inside a spring-forward gap never happened locally.
// It is not an error; it is converted with the offset in force after the
// transition (as if daylight time had already started) and tagged NonExistent.
// In America/New_York on 2023-03-12 that makes 02:40 convert to 06:40Z.
//
// Overlap policy: a wall time repeated by a fall-back transition is converted
// with the offset in force before the transition (the earlier instant) and
// tagged Ambiguous.
package convert

import (
	"slices"
	"sync"
	"time"

	"tzedge/internal/core/civil"
	"tzedge/internal/core/tzrule"
	perr "tzedge/internal/platform/errors"
	"tzedge/internal/platform/logger"
	pstrings "tzedge/internal/platform/strings"
	ptime "tzedge/internal/platform/time"
)

// Kind tags how a wall time maps onto the instant line
type Kind uint8

const (
	// Exact wall times occur exactly once
	Exact Kind = iota
	// NonExistent wall times fall inside a spring-forward gap
	NonExistent
	// Ambiguous wall times occur twice because of a fall-back overlap
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case NonExistent:
		return "non-existent"
	case Ambiguous:
		return "ambiguous"
	default:
		return "exact"
	}
}

// MarshalText renders the kind name in JSON output
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Result is the outcome of one conversion. UTC is always set, even for gap inputs
type Result struct {
	Civil         civil.DateTime `json:"civil"`
	Zone          string         `json:"zone"`
	UTC           time.Time      `json:"utc"`
	OffsetMinutes int            `json:"offset_minutes"`
	Abbrev        string         `json:"abbrev"`
	Kind          Kind           `json:"kind"`
}

// UTCString renders UTC as ISO-8601 with milliseconds and a literal Z
func (r Result) UTCString() string { return ptime.FormatUTCMillis(r.UTC) }

// NonExistent reports whether the input fell inside a spring-forward gap
func (r Result) NonExistent() bool { return r.Kind == NonExistent }

// Converter maps civil times to instants for the zones it holds rules for.
// It is read-only after New and safe for concurrent use
type Converter struct {
	rules map[string]tzrule.Rule
	log   *logger.Logger
}

// Option mutates Converter during New
type Option func(*Converter) error

// WithRule registers or replaces the table for r.Zone
func WithRule(r tzrule.Rule) Option {
	return func(c *Converter) error {
		if err := r.Validate(); err != nil {
			return err
		}
		c.rules[pstrings.ZoneKey(r.Zone)] = r
		return nil
	}
}

// WithoutDefaults drops the built-in tables so only WithRule zones are served
func WithoutDefaults() Option {
	return func(c *Converter) error {
		clear(c.rules)
		return nil
	}
}

// WithLogger sets the logger used for gap and overlap notices
func WithLogger(log *logger.Logger) Option {
	return func(c *Converter) error {
		if log != nil {
			c.log = log
		}
		return nil
	}
}

// New returns a Converter holding the America/New_York 2023 table plus any WithRule zones
func New(opts ...Option) (*Converter, error) {
	ny := tzrule.NewYork2023()
	c := &Converter{
		rules: map[string]tzrule.Rule{pstrings.ZoneKey(ny.Zone): ny},
		log:   logger.Named("convert"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Zones lists the zone ids served, sorted
func (c *Converter) Zones() []string {
	out := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		out = append(out, r.Zone)
	}
	slices.Sort(out)
	return out
}

// Rule returns the table registered for zoneID
func (c *Converter) Rule(zoneID string) (tzrule.Rule, error) {
	r, ok := c.rules[pstrings.ZoneKey(zoneID)]
	if !ok {
		return tzrule.Rule{}, perr.WithField(
			perr.UnsupportedZonef("unsupported zone %q (supported: %v)", zoneID, c.Zones()), "zone")
	}
	return r, nil
}

// Convert maps the civil value in zoneID to a UTC instant.
// Invalid civil fields and unknown zones are errors; gap and overlap inputs are not
func (c *Converter) Convert(in civil.DateTime, zoneID string) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	rule, err := c.Rule(zoneID)
	if err != nil {
		return Result{}, perr.WithOp(err, "convert.Convert")
	}

	wall := in.UnixMilliAsUTC()
	period, kind := classify(rule, wall)
	res := Result{
		Civil:         in,
		Zone:          rule.Zone,
		UTC:           time.UnixMilli(wall - int64(period.OffsetMinutes)*int64(time.Minute/time.Millisecond)).UTC(),
		OffsetMinutes: period.OffsetMinutes,
		Abbrev:        period.Abbrev,
		Kind:          kind,
	}
	if kind != Exact {
		c.log.Debug().
			Str("zone", rule.Zone).
			Str("civil", in.String()).
			Str("kind", kind.String()).
			Str("abbrev", period.Abbrev).
			Str("utc", res.UTCString()).
			Msg("wall time has no one-to-one instant")
	}
	return res, nil
}

// classify picks the regime for a wall clock reading given in epoch milliseconds read as UTC
func classify(rule tzrule.Rule, wall int64) (tzrule.Period, Kind) {
	const msPerMinute = int64(time.Minute / time.Millisecond)
	prev := rule.Initial
	for _, tr := range rule.Transitions {
		p := int64(prev.OffsetMinutes) * msPerMinute
		n := int64(tr.OffsetMinutes) * msPerMinute
		// wall reading of the transition instant under the old offset
		b := tr.At.UnixMilli() + p
		switch {
		case n > p:
			if wall < b {
				return prev, Exact
			}
			if wall < b+(n-p) {
				return tr.Period, NonExistent
			}
		case n < p:
			if wall < b-(p-n) {
				return prev, Exact
			}
			if wall < b {
				return prev, Ambiguous
			}
		}
		prev = tr.Period
	}
	return prev, Exact
}

var defaultConverter = sync.OnceValue(func() *Converter {
	c, err := New()
	if err != nil {
		// built-in table is static; failing here is a programming error
		panic(err)
	}
	return c
})

// Default returns the shared Converter with the built-in tables
func Default() *Converter { return defaultConverter() }

// Convert uses Default to map in within zoneID to UTC
func Convert(in civil.DateTime, zoneID string) (Result, error) {
	return Default().Convert(in, zoneID)
}
