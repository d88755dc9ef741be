package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/star/horizon/internal/schwarzschild"
	"github.com/star/horizon/internal/sweep"
)

type evalOutput struct {
	Input          schwarzschild.Input      `json:"input"`
	Result         schwarzschild.Result     `json:"result"`
	Assessment     schwarzschild.Assessment `json:"assessment"`
	Notes          []string                 `json:"notes"`
	Interpretation string                   `json:"interpretation"`
}

func evalCommand(a *app) *cobra.Command {
	var (
		mass, radius float64
		holeType     string
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate the horizon quantities for one observer",
		Example: "  horizon eval --mass 1 --radius 10\n" +
			"  horizon eval --mass 10 --radius 20 --hole-type white --json",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := schwarzschild.ParseHoleType(holeType)
			if err != nil {
				return err
			}
			in := a.settings.DefaultInput()
			in.Mass = mass
			in.ObservationRadius = radius

			res, err := schwarzschild.Evaluate(in)
			if err != nil {
				return err
			}
			a.logger.Debug("evaluated", "mass", in.Mass, "radius", in.ObservationRadius,
				"classification", res.Classification.String())

			out := evalOutput{
				Input:          in,
				Result:         res,
				Assessment:     a.settings.CalculatorPolicy().Assess(in, res),
				Interpretation: schwarzschild.Describe(kind, in, res),
			}
			out.Notes = schwarzschild.Notes(out.Assessment)
			if out.Notes == nil {
				out.Notes = []string{}
			}

			if asJSON {
				return writeIndentedJSON(cmd.OutOrStdout(), out)
			}
			return printEval(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().Float64Var(&mass, "mass", schwarzschild.DefaultMass, "Mass in solar masses")
	cmd.Flags().Float64Var(&radius, "radius", schwarzschild.DefaultRadius, "Observation radius in km")
	cmd.Flags().StringVar(&holeType, "hole-type", "black", "Interpretation: black or white")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}

func printEval(w io.Writer, out evalOutput) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Event horizon radius:\t%.4f km\n", out.Result.HorizonRadius)
	fmt.Fprintf(tw, "Time dilation factor:\t%s\n", formatFactor(out.Result.TimeDilation))
	fmt.Fprintf(tw, "Escape velocity:\t%.2f km/s\n", out.Result.EscapeVelocity)
	fmt.Fprintf(tw, "Spacetime curvature:\t%.4e\n", out.Result.CurvatureProxy)
	fmt.Fprintf(tw, "Classification:\t%s\n", out.Result.Classification)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, out.Interpretation)
	for _, n := range out.Notes {
		fmt.Fprintln(w, "- "+n)
	}
	return nil
}

func formatFactor(f schwarzschild.Factor) string {
	v, ok := f.Value()
	if !ok {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", v)
}

func sweepCommand(a *app) *cobra.Command {
	var (
		req    sweep.Request
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Tabulate the horizon quantities across a range of radii",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.ReferenceSpeed == 0 {
				req.ReferenceSpeed = a.settings.Calculator.ReferenceSpeed
			}
			resolved, err := sweep.Resolve(req)
			if err != nil {
				return err
			}
			samples, err := sweep.Profile(cmd.Context(), resolved, a.settings.CalculatorPolicy())
			if err != nil {
				return err
			}
			if asJSON {
				return writeIndentedJSON(cmd.OutOrStdout(), samples)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RADIUS (km)\tTIME DILATION\tESCAPE (km/s)\tCURVATURE\tCLASSIFICATION")
			for _, s := range samples {
				fmt.Fprintf(tw, "%.4f\t%s\t%.2f\t%.4e\t%s\n",
					s.Radius,
					formatFactor(s.Result.TimeDilation),
					s.Result.EscapeVelocity,
					s.Result.CurvatureProxy,
					s.Result.Classification,
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Float64Var(&req.Mass, "mass", schwarzschild.DefaultMass, "Mass in solar masses")
	cmd.Flags().Float64Var(&req.From, "from", 0, "First radius in km (default: horizon + 0.1)")
	cmd.Flags().Float64Var(&req.To, "to", 0, "Last radius in km (default: 1000 or 10x from, whichever is larger)")
	cmd.Flags().IntVar(&req.Steps, "steps", 20, "Number of samples")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func defaultsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the reset values",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeIndentedJSON(cmd.OutOrStdout(), a.settings.DefaultInput())
		},
	}
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
