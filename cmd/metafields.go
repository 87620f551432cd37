package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopadmin-cli/shopadmin/internal/utils"
	"github.com/shopadmin-cli/shopadmin/pkg/metafields"
	"github.com/shopadmin-cli/shopadmin/pkg/prompt"
	"github.com/shopadmin-cli/shopadmin/pkg/storage"
	"github.com/spf13/cobra"
)

var metafieldsCmd = &cobra.Command{
	Use:   "metafields",
	Short: "Reclaim metafields that have no definition",
}

var deleteUnstructuredCmd = &cobra.Command{
	Use:   "delete-unstructured",
	Short: "Find unstructured metafields and delete every instance of them",
	Long: `Scans products (or variants) for metafields that have no definition. For each
one found, all instances of its namespace:key are deleted across the whole store
by deleting its definition with all associated metafields, creating a temporary
definition first when none exists.

Deletions cannot be undone. Every committed deletion is recorded in the local
journal, see "metafields history".`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")
		typeFlag, _ := cmd.Flags().GetString("type")
		rt, err := metafields.ParseResourceType(typeFlag)
		if err != nil {
			return err
		}

		client, err := newShopifyClient(cmd)
		if err != nil {
			return err
		}
		shop := client.Shop()

		lock, err := utils.NewRunLock(shop.Name)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		var (
			journal metafields.Journal
			run     *storage.RunJournal
		)
		if db, err := openJournal(); err != nil {
			utils.Log.Warnf("Journal unavailable, deletions will not be recorded: %v", err)
		} else {
			defer db.Close()
			run, err = db.StartRun(context.Background(), shop.Name, rt, force)
			if err != nil {
				utils.Log.Warnf("Journal unavailable, deletions will not be recorded: %v", err)
			} else {
				journal = run
			}
		}

		reclaimer := metafields.NewReclaimer(client, client, prompt.NewTerminal(), metafields.Options{
			ResourceType: rt,
			Force:        force,
			Shop:         shop.Name,
			Journal:      journal,
			Out:          os.Stdout,
		})
		summary, runErr := reclaimer.Run(context.Background())
		metafields.PrintSummary(os.Stdout, summary)

		if run != nil {
			if err := run.Finish(context.Background(), summary, runErr); err != nil {
				utils.Log.Warnf("Could not finish journal run %d: %v", run.ID(), err)
			}
		}
		return runErr
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show deletions recorded in the journal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sinceFlag, _ := cmd.Flags().GetString("since")
		limit, _ := cmd.Flags().GetInt("limit")
		shopName, _ := cmd.Flags().GetString("shop")

		since, err := parseSince(sinceFlag, time.Now())
		if err != nil {
			return err
		}

		db, err := openJournal()
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.ListDeletions(context.Background(), storage.DeletionFilter{Shop: shopName, Since: since, Limit: limit})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No deletions recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "DELETED AT\tSHOP\tRESOURCE\tMETAFIELD\tTYPE\tDEFINITION\tRUN\t")
		for _, r := range records {
			definition := r.DefinitionID
			if r.Temporary {
				definition += " (temporary)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t\n",
				r.DeletedAt.Local().Format("2006-01-02 15:04:05"), r.Shop, r.ResourceType, r.LedgerKey(), r.Type, definition, r.RunID)
		}
		return w.Flush()
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent reclamation runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		shopName, _ := cmd.Flags().GetString("shop")

		db, err := openJournal()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background(), shopName, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tSHOP\tRESOURCE\tMODE\tSTATUS\tSCANNED\tDELETED\tSKIPPED\tFAILED\t")
		for _, r := range runs {
			mode := "interactive"
			if r.Force {
				mode = "force"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t\n",
				r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Shop, r.ResourceType, mode, r.Status,
				r.Scanned, r.Deleted, r.Skipped, r.Failed)
		}
		return w.Flush()
	},
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints per-shop totals from the journal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openJournal()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Println("No data in the journal to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "SHOP\tRUNS\tDELETIONS\t")
		var totalRuns, totalDeletions int
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t\n", s.Shop, s.Runs, s.Deletions)
			totalRuns += s.Runs
			totalDeletions += s.Deletions
		}
		fmt.Fprintln(w, " \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t\n", totalRuns, totalDeletions)
		return w.Flush()
	},
}

// parseSince accepts an RFC3339 timestamp, a date or a duration counted back
// from now.
func parseSince(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return now.Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q: use RFC3339, YYYY-MM-DD or a duration like 72h", s)
}

func init() {
	rootCmd.AddCommand(metafieldsCmd)
	metafieldsCmd.AddCommand(deleteUnstructuredCmd)
	metafieldsCmd.AddCommand(historyCmd)
	metafieldsCmd.AddCommand(runsCmd)
	metafieldsCmd.AddCommand(journalStatsCmd)

	deleteUnstructuredCmd.Flags().BoolP("force", "f", false, "Delete every unstructured metafield without asking")
	deleteUnstructuredCmd.Flags().StringP("type", "t", "product", "Resource type to scan: product, variant")

	historyCmd.Flags().String("since", "", "Only show deletions after this time (RFC3339, YYYY-MM-DD or a duration like 72h)")
	historyCmd.Flags().Int("limit", 0, "Maximum number of deletions to show (0 for all)")
	runsCmd.Flags().Int("limit", 20, "Number of recent runs to show")
}
