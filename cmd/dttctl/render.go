package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dtt/internal/services"

	"github.com/spf13/cobra"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var input, layout, outDir string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a trip ticket JSON file to PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := services.ParseLayout(layout)
			if err != nil {
				return err
			}
			t, err := readTicket(input)
			if err != nil {
				return err
			}
			r, err := opts.renderer()
			if err != nil {
				return err
			}
			pdf, err := r.Render(t, l)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(outDir, services.TicketFilename(t, time.Now()))
			if err := os.WriteFile(path, pdf, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "trip ticket JSON file")
	cmd.Flags().StringVar(&layout, "layout", string(services.LayoutGovernmentForm), "government or summary")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
