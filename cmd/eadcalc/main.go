// Command eadcalc runs one EAD calculation from the command line: load a
// portfolio snapshot (SQLite file or PostgreSQL warehouse extract), run the
// CRM waterfall, print the audit summary and optionally dump the adjusted
// exposure dataset as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/capital-engine/crm"
	"github.com/warp/capital-engine/engine"
	"github.com/warp/capital-engine/factory"
	"github.com/warp/capital-engine/store/postgres"
	"github.com/warp/capital-engine/store/sqlite"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "eadcalc",
		Short:   "eadcalc - Regulatory capital EAD waterfall calculator",
		Version: Version,
	}

	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the waterfall over a portfolio snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, _ := cmd.Flags().GetString("snapshot")
			dsn, _ := cmd.Flags().GetString("postgres")
			date, _ := cmd.Flags().GetString("date")
			paramsPath, _ := cmd.Flags().GetString("params")
			dumpExposures, _ := cmd.Flags().GetBool("exposures")

			src, closeSrc, err := openSource(snapshot, dsn, date)
			if err != nil {
				return err
			}
			defer closeSrc()

			cfg := engine.DefaultConfig()
			schedule := crm.DefaultHaircutSchedule()
			if paramsPath != "" {
				if cfg, schedule, err = factory.Load(paramsPath); err != nil {
					return err
				}
			}

			result, err := crm.NewWaterfall(cfg, schedule).Run(context.Background(), src)
			if err != nil {
				return fmt.Errorf("calculation failed: %w", err)
			}

			printSummary(cmd, result)
			if dumpExposures {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result.Exposures)
			}
			return nil
		},
	}

	cmd.Flags().StringP("snapshot", "s", "", "SQLite snapshot file")
	cmd.Flags().String("postgres", "", "PostgreSQL DSN (alternative to --snapshot)")
	cmd.Flags().String("date", "", "snapshot_date when reading from PostgreSQL")
	cmd.Flags().StringP("params", "p", "", "YAML parameter file (default: supervisory defaults)")
	cmd.Flags().Bool("exposures", false, "dump the adjusted exposure dataset as JSON")

	return cmd
}

func openSource(snapshot, dsn, date string) (engine.Source, func(), error) {
	switch {
	case snapshot != "" && dsn != "":
		return nil, nil, fmt.Errorf("--snapshot and --postgres are mutually exclusive")
	case snapshot != "":
		src, err := sqlite.New(snapshot)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil
	case dsn != "":
		if date == "" {
			return nil, nil, fmt.Errorf("--date is required with --postgres")
		}
		src, err := postgres.New(dsn, date)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("one of --snapshot or --postgres is required")
	}
}

func printSummary(cmd *cobra.Command, result *crm.Result) {
	out := cmd.OutOrStdout()
	s := result.Summary
	fmt.Fprintf(out, "run %s\n", s.RunID)
	fmt.Fprintf(out, "  exposures:       %d (%d undrawn headroom)\n", s.ExposureCount, s.HeadroomCount)
	fmt.Fprintf(out, "  total EAD pre:   %s\n", s.TotalEADPreCRM)
	fmt.Fprintf(out, "  total EAD final: %s\n", s.TotalEADFinal)
	if result.Errors.Len() == 0 {
		fmt.Fprintln(out, "  errors:          none")
		return
	}
	fmt.Fprintf(out, "  errors:          %d\n", result.Errors.Len())
	for _, e := range result.Errors.Errors {
		fmt.Fprintf(out, "    - %s\n", e.Error())
	}
}
