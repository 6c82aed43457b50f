package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/airdraw/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a saved drawing to an SVG or PDF file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(args[0], exportOut)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (.svg or .pdf)")
	exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

func runExport(id, out string) error {
	d, err := DB.Drawings().GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to load drawing %s: %w", id, err)
	}

	ext := strings.ToLower(filepath.Ext(out))
	if ext != ".svg" && ext != ".pdf" {
		return fmt.Errorf("unsupported output format %q (want .svg or .pdf)", ext)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if ext == ".svg" {
		if _, err := f.WriteString(d.SVG); err != nil {
			return err
		}
	} else {
		strokes, err := export.SavedStrokes(d.Paths, d.SVG)
		if err != nil {
			return fmt.Errorf("drawing %s is corrupt: %w", id, err)
		}
		if err := export.WritePDF(f, d.Width, d.Height, strokes); err != nil {
			return err
		}
	}

	fmt.Printf("Wrote %s to %s\n", d.Name, out)
	return f.Close()
}
