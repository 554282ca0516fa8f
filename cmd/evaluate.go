package main

import (
	"comfort-exporter/pmv"
	"comfort-exporter/units"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newEvaluateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "evaluate",
		Short: "print the predicted mean vote for a single set of conditions",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			flags := c.Flags()
			ta, _ := flags.GetFloat64("ta")
			rh, _ := flags.GetFloat64("rh")
			v, _ := flags.GetFloat64("v")
			met, _ := flags.GetFloat64("met")
			clo, _ := flags.GetFloat64("clo")
			verbose, _ := flags.GetBool("verbose")

			conditions := pmv.NewConditions(units.Celsius(ta), units.RelativeHumidity(rh), units.MetersPerSecond(v)).
				WithMetabolicRate(units.Met(met)).
				WithClothing(units.Clo(clo))
			if flags.Changed("tr") {
				tr, _ := flags.GetFloat64("tr")
				conditions = conditions.WithMeanRadiantTemperature(units.Celsius(tr))
			}
			if flags.Changed("pa") {
				pa, _ := flags.GetFloat64("pa")
				conditions = conditions.WithVaporPressure(units.Kilopascals(pa))
			}

			balance, err := pmv.Breakdown(conditions)
			if err != nil {
				return err
			}

			out := c.OutOrStdout()
			fmt.Fprintf(out, "PMV: %.2f\n", balance.PMV)
			if !verbose {
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "metabolic rate\t%.2f W/m²\n", balance.MetabolicRate)
			fmt.Fprintf(w, "clothing insulation\t%.4f m²K/W\n", balance.ClothingInsulation)
			fmt.Fprintf(w, "mean radiant temperature\t%.2f °C\n", balance.MeanRadiantTemperature)
			fmt.Fprintf(w, "vapor pressure\t%.4f kPa\n", balance.VaporPressure)
			fmt.Fprintf(w, "convective heat transfer\t%.4f W/m²K\n", balance.ConvectiveHeatTransfer)
			fmt.Fprintf(w, "clothing area factor\t%.4f\n", balance.ClothingAreaFactor)
			fmt.Fprintf(w, "clothing surface temperature\t%.2f °C\n", balance.ClothingSurfaceTemperature)
			for _, loss := range balance.Losses() {
				fmt.Fprintf(w, "heat loss %s\t%.4f W/m²\n", loss.Term, loss.Value)
			}
			return w.Flush()
		},
	}

	flags := command.Flags()
	flags.Float64("ta", 0, "Dry-bulb air temperature in degrees Celsius")
	flags.Float64("rh", 0, "Relative humidity in percent")
	flags.Float64("v", 0, "Air speed at the body in meters per second")
	flags.Float64("met", float64(pmv.DefaultMetabolicRate), "Metabolic rate in met")
	flags.Float64("clo", float64(pmv.DefaultClothing), "Clothing insulation in clo")
	flags.Float64("tr", 0, "Mean radiant temperature in degrees Celsius; defaults to the air temperature")
	flags.Float64("pa", 0, "Partial water vapor pressure in kilopascals; defaults to a value derived from the relative humidity")
	flags.Bool("verbose", false, "Also print the heat balance")
	command.MarkFlagRequired("ta")
	command.MarkFlagRequired("rh")
	command.MarkFlagRequired("v")

	return command
}
