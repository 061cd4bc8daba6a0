package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fairwork-tools/holidaycheck/internal/model"
	"github.com/fairwork-tools/holidaycheck/internal/resolve"
)

var (
	lookupState      string
	lookupYear       int
	lookupStart      string
	lookupEnd        string
	lookupRestricted bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <address>",
	Short: "Resolve the holiday list for a single address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		req := resolve.Request{
			Address:           args[0],
			Year:              lookupYear,
			PeriodStart:       lookupStart,
			PeriodEnd:         lookupEnd,
			IncludeRestricted: lookupRestricted,
		}
		if lookupState != "" {
			state, err := model.ParseState(lookupState)
			if err != nil {
				return eris.Wrap(err, "parse --state")
			}
			req.StateHint = state
		}
		if (lookupStart == "") != (lookupEnd == "") {
			return eris.New("--start and --end must be given together")
		}

		res := env.Service.Resolve(cmd.Context(), req)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupState, "state", "", "expected state; a mismatch flags the result for review")
	lookupCmd.Flags().IntVar(&lookupYear, "year", 0, "calendar year (default: current or period year)")
	lookupCmd.Flags().StringVar(&lookupStart, "start", "", "pay period start (YYYY-MM-DD)")
	lookupCmd.Flags().StringVar(&lookupEnd, "end", "", "pay period end (YYYY-MM-DD)")
	lookupCmd.Flags().BoolVar(&lookupRestricted, "include-restricted", false,
		"also apply rules gazetted for public-service or banking employers only")
	rootCmd.AddCommand(lookupCmd)
}
