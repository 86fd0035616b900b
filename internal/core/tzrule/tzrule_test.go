package tzrule

import (
	"testing"
	"time"

	perr "tzedge/internal/platform/errors"
	kit "tzedge/internal/platform/testkit"
)

var springForward2023 = time.Date(2023, 3, 12, 7, 0, 0, 0, time.UTC)

func TestNewYork2023_Table(t *testing.T) {
	t.Parallel()

	r := NewYork2023()
	if err := r.Validate(); err != nil {
		t.Fatalf("built-in table invalid: %v", err)
	}
	if r.Zone != "America/New_York" || len(r.Transitions) != 1 {
		t.Fatalf("unexpected table: %+v", r)
	}
	tr := r.Transitions[0]
	if !tr.At.Equal(springForward2023) || tr.OffsetMinutes != -240 || tr.Abbrev != "EDT" || !tr.DST {
		t.Fatalf("unexpected transition: %+v", tr)
	}
	if r.Initial.OffsetMinutes != -300 || r.Initial.Abbrev != "EST" || r.Initial.DST {
		t.Fatalf("unexpected initial period: %+v", r.Initial)
	}
	if r.Initial.Offset() != -5*time.Hour {
		t.Fatalf("Offset() = %v", r.Initial.Offset())
	}
}

func TestRule_At(t *testing.T) {
	t.Parallel()

	r := NewYork2023()
	cases := []struct {
		at   time.Time
		want string
	}{
		{springForward2023.AddDate(0, 0, -30), "EST"},
		{springForward2023.Add(-time.Millisecond), "EST"},
		{springForward2023, "EDT"},
		{springForward2023.Add(time.Hour), "EDT"},
	}
	for _, c := range cases {
		if got := r.At(c.at).Abbrev; got != c.want {
			t.Fatalf("At(%s) = %s, want %s", c.at.Format(time.RFC3339Nano), got, c.want)
		}
	}
}

func TestRule_Validate(t *testing.T) {
	t.Parallel()

	kit.MustCode(t, Rule{}.Validate(), perr.ErrorCodeInvalidRule)

	unordered := NewYork2023()
	unordered.Transitions = append(unordered.Transitions, Transition{
		At:     springForward2023.Add(-time.Hour),
		Period: est,
	})
	kit.MustCode(t, unordered.Validate(), perr.ErrorCodeInvalidRule)

	flat := NewYork2023()
	flat.Transitions[0].Period = est
	kit.MustCode(t, flat.Validate(), perr.ErrorCodeInvalidRule)

	withFall := NewYork2023()
	withFall.Transitions = append(withFall.Transitions, Transition{
		At:     time.Date(2023, 11, 5, 6, 0, 0, 0, time.UTC),
		Period: est,
	})
	if err := withFall.Validate(); err != nil {
		t.Fatalf("spring+fall table should validate: %v", err)
	}
}

func TestDiscover_MatchesBuiltInTable(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}

	from := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	got, err := FromLocation(loc, from, to, 2*time.Hour)
	if err != nil {
		t.Fatalf("FromLocation error: %v", err)
	}

	want := NewYork2023()
	if got.Zone != want.Zone || got.Initial != want.Initial {
		t.Fatalf("header mismatch: got %+v want %+v", got, want)
	}
	if len(got.Transitions) != 1 {
		t.Fatalf("expected one transition, got %+v", got.Transitions)
	}
	if g, w := got.Transitions[0], want.Transitions[0]; !g.At.Equal(w.At) || g.Period != w.Period {
		t.Fatalf("transition mismatch: got %+v want %+v", g, w)
	}
}

func TestDiscover_Windows(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}

	tests := []struct {
		name  string
		from  time.Time
		to    time.Time
		count int
	}{
		{"whole year has spring and fall", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2},
		{"one second before spring", springForward2023.Add(-time.Second), springForward2023.Add(time.Second), 1},
		{"starting at spring finds nothing", springForward2023, springForward2023.Add(2 * time.Hour), 0},
		{"five weeks before spring finds nothing", springForward2023.AddDate(0, 0, -35), springForward2023.AddDate(0, 0, -34), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discover(loc, tt.from, tt.to, 6*time.Hour)
			if err != nil {
				t.Fatalf("Discover error: %v", err)
			}
			if len(got) != tt.count {
				t.Fatalf("Discover found %d transitions, want %d: %+v", len(got), tt.count, got)
			}
			if tt.count == 1 && !got[0].At.Equal(springForward2023) {
				t.Fatalf("Discover at %v, want %v", got[0].At, springForward2023)
			}
		})
	}
}

func TestDiscover_UTCHasNoTransitions(t *testing.T) {
	t.Parallel()

	got, err := Discover(time.UTC, springForward2023.Add(-time.Hour), springForward2023.Add(time.Hour), time.Hour)
	if err != nil || len(got) != 0 {
		t.Fatalf("Discover(UTC) = %+v, %v", got, err)
	}
}

func TestDiscover_BadArguments(t *testing.T) {
	t.Parallel()

	_, err := Discover(nil, springForward2023, springForward2023.Add(time.Hour), time.Hour)
	kit.MustCode(t, err, perr.ErrorCodeInvalidArgument)
	_, err = Discover(time.UTC, springForward2023, springForward2023.Add(time.Hour), time.Millisecond)
	kit.MustCode(t, err, perr.ErrorCodeInvalidArgument)
	_, err = Discover(time.UTC, springForward2023, springForward2023, time.Hour)
	kit.MustCode(t, err, perr.ErrorCodeInvalidArgument)
}
