package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var shopsCmd = &cobra.Command{
	Use:   "shops",
	Short: "Manage the shops configured in the config file",
}

var shopsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured shops",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store := shopStore()
		list, err := store.List()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println(`No shops configured. Add one to the "shops" list of your config file.`)
			return nil
		}

		def := store.DefaultShop()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tURL\tTOKEN\tADDED\t")
		for _, s := range list {
			name := s.Name
			if name == def {
				name += " (default)"
			}
			added := "-"
			if !s.AddedAt.IsZero() {
				added = s.AddedAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", name, s.URL, s.MaskedToken(), added)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(shopsCmd)
	shopsCmd.AddCommand(shopsListCmd)
}
