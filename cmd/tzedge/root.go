package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"tzedge/internal/core/civil"
	"tzedge/internal/core/convert"
	"tzedge/internal/core/tzrule"
	"tzedge/internal/core/version"
	perr "tzedge/internal/platform/errors"
	"tzedge/internal/platform/logger"
	ptime "tzedge/internal/platform/time"

	"github.com/spf13/cobra"
)

type cli struct {
	root   *cobra.Command
	out    io.Writer
	conv   *convert.Converter
	set    settings
	format string
}

func newCLI(out io.Writer, set settings, opts ...convert.Option) (*cli, error) {
	conv, err := convert.New(opts...)
	if err != nil {
		return nil, err
	}
	c := &cli{out: out, conv: conv, set: set}

	root := &cobra.Command{
		Use:   "tzedge",
		Short: "Convert wall-clock times to UTC around DST transitions",
		Long: `tzedge converts zone-less wall-clock times to UTC using explicit transition
tables. Wall times skipped by a spring-forward transition are converted with
the daylight offset and tagged non-existent instead of failing.

Examples:
  # 2:40 AM never happened in New York on 2023-03-12
  tzedge convert 2023-03-12T02:40:00.000

  # end of day one week earlier
  tzedge prior-week 2023-03-12T01:40:00.000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(c.format) {
			case formatText, formatJSON:
				c.format = strings.ToLower(c.format)
				return nil
			}
			return perr.WithField(perr.InvalidArgf("unknown format %q (text|json)", c.format), "format")
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&c.format, "format", "o", set.Format, "Output format (text|json)")

	root.AddCommand(
		c.convertCmd(),
		c.priorWeekCmd(),
		c.offsetCmd(),
		c.transitionsCmd(),
		c.versionCmd(),
	)
	c.root = root
	return c, nil
}

// reportError writes err to w as a perr Wire payload under json, plain text otherwise
func (c *cli) reportError(w io.Writer, err error) {
	if strings.EqualFold(c.format, formatJSON) {
		enc := json.NewEncoder(w)
		if encErr := enc.Encode(struct {
			Error perr.Wire `json:"error"`
		}{Error: perr.WireFrom(err)}); encErr == nil {
			return
		}
	}
	_, _ = fmt.Fprintf(w, "error: %v\n", err)
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return perr.InvalidArgf("%s expects %d argument(s), got %d", cmd.Name(), n, len(args))
		}
		return nil
	}
}

func (c *cli) convertCmd() *cobra.Command {
	var zone string
	cmd := &cobra.Command{
		Use:   "convert <civil-time>",
		Short: "Convert a wall-clock time in a zone to UTC",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := civil.Parse(args[0])
			if err != nil {
				return err
			}
			log := logger.C(logger.WithZone(cmd.Context(), zone, "convert"))
			res, err := c.conv.Convert(in, zone)
			if err != nil {
				log.Debug().Err(err).Str("civil", in.String()).Msg("conversion rejected")
				return err
			}
			log.Debug().Str("civil", in.String()).Str("utc", res.UTCString()).Str("kind", res.Kind.String()).Msg("converted")
			if c.format == formatJSON {
				return c.writeJSON(struct {
					convert.Result
					UTC string `json:"utc"`
				}{Result: res, UTC: res.UTCString()})
			}
			line := fmt.Sprintf("%s %s -> %s (%s, UTC%+03d:%02d)",
				res.Civil, res.Zone, res.UTCString(), res.Abbrev, res.OffsetMinutes/60, abs(res.OffsetMinutes%60))
			if res.Kind != convert.Exact {
				line += " [" + res.Kind.String() + "]"
			}
			return c.println(line)
		},
	}
	cmd.Flags().StringVarP(&zone, "zone", "z", c.set.Zone, "IANA zone id")
	return cmd
}

func (c *cli) priorWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prior-week <civil-time>",
		Short: "Print the end of day exactly seven days earlier",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := civil.Parse(args[0])
			if err != nil {
				return err
			}
			got := civil.EndOfPriorWeek(in)
			if c.format == formatJSON {
				return c.writeJSON(map[string]string{"civil": in.String(), "end_of_prior_week": got.String()})
			}
			return c.println(got.String())
		},
	}
}

func (c *cli) offsetCmd() *cobra.Command {
	var minutes int
	cmd := &cobra.Command{
		Use:   "offset <civil-time>",
		Short: "Convert a wall-clock time to UTC at a fixed offset, ignoring zone rules",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if minutes < -18*60 || minutes > 18*60 {
				return perr.WithField(perr.InvalidArgf("offset %d minutes is outside +-18h", minutes), "minutes")
			}
			in, err := civil.Parse(args[0])
			if err != nil {
				return err
			}
			utc := ptime.FormatUTCMillis(civil.ToUTCAtOffset(in, minutes))
			if c.format == formatJSON {
				return c.writeJSON(map[string]any{"civil": in.String(), "offset_minutes": minutes, "utc": utc})
			}
			return c.println(utc)
		},
	}
	cmd.Flags().IntVarP(&minutes, "minutes", "m", -300, "Offset east of UTC in minutes (EST is -300)")
	return cmd
}

func (c *cli) transitionsCmd() *cobra.Command {
	var (
		zone     string
		from, to string
		step     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "List offset transitions found in the system tz database",
		Long: `transitions scans the embedded tz database for offset changes. It is a
cross-check for the explicit tables used by convert, which never reads it.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(zone)
			if err != nil {
				return perr.WithField(perr.Wrapf(err, perr.ErrorCodeUnsupportedZone, "unknown zone %q", zone), "zone")
			}
			fromT, err := parseDate(from, "from")
			if err != nil {
				return err
			}
			toT, err := parseDate(to, "to")
			if err != nil {
				return err
			}
			trs, err := tzrule.Discover(loc, fromT, toT, step)
			if err != nil {
				return err
			}
			if c.format == formatJSON {
				return c.writeJSON(trs)
			}
			for _, tr := range trs {
				if err := c.println(fmt.Sprintf("%s %s offset=%d dst=%t",
					ptime.FormatUTCMillis(tr.At), tr.Abbrev, tr.OffsetMinutes, tr.DST)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&zone, "zone", "z", c.set.Zone, "IANA zone id")
	cmd.Flags().StringVar(&from, "from", "2023-01-01", "Scan start date (YYYY-MM-DD, UTC)")
	cmd.Flags().StringVar(&to, "to", "2024-01-01", "Scan end date (YYYY-MM-DD, UTC), exclusive")
	cmd.Flags().DurationVar(&step, "step", c.set.ScanStep, "Sampling step; must be shorter than any gap between transitions")
	return cmd
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			bi := version.Info()
			if c.format == formatJSON {
				return c.writeJSON(bi)
			}
			return c.println(fmt.Sprintf("%s %s (%s, %s)", bi.Service, bi.Version, bi.Commit, bi.Date))
		},
	}
}

func parseDate(s, field string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "invalid %s date %q", field, s), field)
	}
	return t, nil
}

func (c *cli) println(s string) error {
	_, err := fmt.Fprintln(c.out, s)
	return err
}

func (c *cli) writeJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
