package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/airdraw/internal/discovery"
)

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find airdraw canvases on the local network",
	RunE: func(cmd *cobra.Command, args []string) error {
		found := 0
		err := discovery.Browse(discoverTimeout, func(p discovery.Peer) {
			found++
			fmt.Printf("%s\t%s\n", p.Name, p.URL())
		})
		if err != nil {
			return fmt.Errorf("mdns query failed: %w", err)
		}
		if found == 0 {
			fmt.Println("No canvases found.")
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().DurationVarP(&discoverTimeout, "timeout", "t", discovery.DefaultTimeout, "How long to listen for answers")
	rootCmd.AddCommand(discoverCmd)
}
