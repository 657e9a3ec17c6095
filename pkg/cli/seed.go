package cli

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/getmockd/bankmock/pkg/cli/internal/output"
	"github.com/getmockd/bankmock/pkg/resource"
	"github.com/getmockd/bankmock/pkg/seed"
)

var seedKeys = map[string]string{
	"seed-value":      "seed.seed",
	"accounts":        "seed.accounts",
	"transactions":    "seed.transactions",
	"vrps":            "seed.vrps",
	"medical-insured": "seed.medicalInsured",
	"documents":       "seed.documents",
}

// SeedOutput is the JSON result of the seed command.
type SeedOutput struct {
	Database string                `json:"database"`
	Created  map[resource.Kind]int `json:"created"`
	Total    int                   `json:"total"`
}

func newSeedCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with generated fixture records",
		Long: `Generate accounts, transactions, VRPs, medical-insured persons and
documents. Records are written one by one; if a write fails the records
already written are kept.`,
		Example: `  bankmock seed --db bankmock.db

  # Reproducible fixtures
  bankmock seed --seed-value 42 --accounts 4 --transactions 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, seedKeys)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}

			res, err := runSeed(cmd.Context(), a, db)
			if err != nil {
				output.Warn(cmd.ErrOrStderr(), "seeding stopped after %d records", res.Total())
				return err
			}

			out := SeedOutput{Database: a.cfg.Database.Path, Created: res.Created, Total: res.Total()}
			if a.json {
				return output.JSON(a.out, out)
			}

			kinds := make([]string, 0, len(res.Created))
			for k := range res.Created {
				kinds = append(kinds, string(k))
			}
			slices.Sort(kinds)

			tw := output.Table(a.out)
			fmt.Fprintln(tw, "KIND\tCREATED")
			for _, k := range kinds {
				fmt.Fprintf(tw, "%s\t%d\n", k, res.Created[resource.Kind(k)])
			}
			fmt.Fprintf(tw, "total\t%d\n", out.Total)
			return tw.Flush()
		},
	}

	cmd.Flags().Int64("seed-value", 0, "Random seed; 0 picks one")
	cmd.Flags().Int("accounts", 0, "Number of accounts, alternating physical and legal")
	cmd.Flags().Int("transactions", 0, "Number of transactions")
	cmd.Flags().Int("vrps", 0, "Number of VRPs")
	cmd.Flags().Int("medical-insured", 0, "Number of medical-insured persons")
	cmd.Flags().Int("documents", 0, "Number of bank and of insurance documents")
	return cmd
}

func runSeed(ctx context.Context, a *app, db *sql.DB) (seed.Result, error) {
	s := a.cfg.Seed
	res, err := seed.New(s.Seed, seed.WithLogger(a.log)).Run(ctx, db, seed.Counts{
		Accounts:       s.Accounts,
		Transactions:   s.Transactions,
		VRPs:           s.VRPs,
		MedicalInsured: s.MedicalInsured,
		Documents:      s.Documents,
	})
	if err != nil {
		return res, fmt.Errorf("seed fixtures: %w", err)
	}
	return res, nil
}
