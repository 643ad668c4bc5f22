package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/pcetoken/clock"
)

var clockDays uint32

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Evaluate boundary clock predicates",
}

var clockIntervalCmd = &cobra.Command{
	Use:   "interval FROM TO",
	Short: "Report whether a decay boundary lies in (FROM, TO]",
	Long: `Report whether a boundary of a --days long grid anchored at the unix
epoch lies in (FROM, TO]. Times are RFC 3339 or unix seconds.`,
	Args: cobra.ExactArgs(2),
	RunE: runClockInterval,
}

var clockWednesdayCmd = &cobra.Command{
	Use:   "wednesday FROM TO",
	Short: "Report whether a Wednesday 00:00 UTC lies in (FROM, TO]",
	Args:  cobra.ExactArgs(2),
	RunE:  runClockWednesday,
}

func init() {
	clockIntervalCmd.Flags().Uint32Var(&clockDays, "days", 7, "grid length in days")
	clockCmd.AddCommand(clockIntervalCmd)
	clockCmd.AddCommand(clockWednesdayCmd)
}

func runClockInterval(cmd *cobra.Command, args []string) error {
	from, to, err := parseRange(args)
	if err != nil {
		return err
	}
	if clockDays == 0 {
		return fmt.Errorf("--days must be positive")
	}
	fmt.Fprintln(cmd.OutOrStdout(), clock.IntervalDaysOf(from, to, clockDays))
	return nil
}

func runClockWednesday(cmd *cobra.Command, args []string) error {
	from, to, err := parseRange(args)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), clock.IsWednesdayBetween(from, to))
	return nil
}

func parseRange(args []string) (int64, int64, error) {
	from, err := parseInstant(args[0])
	if err != nil {
		return 0, 0, err
	}
	to, err := parseInstant(args[1])
	if err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

// parseInstant accepts unix seconds or RFC 3339.
func parseInstant(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: want unix seconds or RFC 3339", s)
	}
	return t.Unix(), nil
}
