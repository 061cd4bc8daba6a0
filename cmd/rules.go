package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fairwork-tools/holidaycheck/internal/rules"
)

var rulesFile string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Work with the curated regional rule file",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the curated rule file",
	Long:  "Parses the rule file exactly as the resolver would at startup and reports the first malformed row, if any.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := rulesFile
		if path == "" {
			path = cfg.Rules.Path
		}

		loaded, err := rules.LoadFile(path)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d rules OK\n", path, len(loaded))
		return nil
	},
}

func init() {
	rulesValidateCmd.Flags().StringVarP(&rulesFile, "file", "f", "", "rule file path (default from config)")
	rulesCmd.AddCommand(rulesValidateCmd)
	rootCmd.AddCommand(rulesCmd)
}
