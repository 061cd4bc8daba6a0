package main

import (
	"github.com/spf13/cobra"

	"github.com/fairwork-tools/holidaycheck/internal/lga"
)

var (
	boundariesShapefile  string
	boundariesOut        string
	boundariesNameField  string
	boundariesStateField string
	boundariesSimplify   float64
)

var boundariesCmd = &cobra.Command{
	Use:   "boundaries",
	Short: "Work with the LGA boundary artifact",
}

var boundariesBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the boundary artifact from an ABS shapefile",
	Long:  "Converts an ABS LGA shapefile into the simplified GeoJSON artifact the resolver loads at startup.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return lga.BuildArtifact(boundariesShapefile, boundariesOut, lga.BuildOptions{
			NameField:         boundariesNameField,
			StateField:        boundariesStateField,
			SimplifyTolerance: boundariesSimplify,
		})
	},
}

func init() {
	boundariesBuildCmd.Flags().StringVar(&boundariesShapefile, "shapefile", "", "ABS LGA shapefile path (required)")
	boundariesBuildCmd.Flags().StringVarP(&boundariesOut, "out", "o", "lga-boundaries.geojson", "output artifact path")
	boundariesBuildCmd.Flags().StringVar(&boundariesNameField, "name-field", "", "LGA name attribute (default LGA_NAME_2025)")
	boundariesBuildCmd.Flags().StringVar(&boundariesStateField, "state-field", "", "state name attribute (default STATE_NAME_2021)")
	boundariesBuildCmd.Flags().Float64Var(&boundariesSimplify, "simplify", 0, "ring decimation tolerance in degrees (default 0.001)")
	_ = boundariesBuildCmd.MarkFlagRequired("shapefile")
	boundariesCmd.AddCommand(boundariesBuildCmd)
	rootCmd.AddCommand(boundariesCmd)
}
