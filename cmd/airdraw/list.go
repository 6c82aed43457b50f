package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved drawings",
	RunE: func(cmd *cobra.Command, args []string) error {
		drawings, err := DB.Drawings().List()
		if err != nil {
			return fmt.Errorf("failed to list drawings: %w", err)
		}
		if len(drawings) == 0 {
			fmt.Println("No saved drawings.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSIZE\tSTROKES\tCREATED")
		for _, d := range drawings {
			fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\t%s\n",
				d.ID, d.Name, d.Width, d.Height, d.Strokes, d.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
