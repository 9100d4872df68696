package main

import (
	"encoding/json"
	"fmt"
	"time"

	intconfig "dtt/internal/config"
	"dtt/internal/drive"
	"dtt/internal/services"

	"github.com/spf13/cobra"
)

func newUploadCmd(opts *rootOptions) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Render a trip ticket and upload it to Google Drive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTicket(input)
			if err != nil {
				return err
			}
			r, err := opts.renderer()
			if err != nil {
				return err
			}
			pdf, err := r.Render(t, services.LayoutGovernmentForm)
			if err != nil {
				return err
			}

			cfg := drive.ConfigFromEnv(intconfig.LoadEnv().Drive)
			tokens := drive.NewTokenStore(cfg, opts.logger().Named("drive"))
			if !tokens.IsAuthorized() {
				return fmt.Errorf("%w: run dttctl auth url first", drive.ErrNotAuthorized)
			}
			up := drive.NewUploader(cfg, tokens, opts.logger().Named("drive"))
			defer up.Close()

			res, err := up.UploadPDF(cmd.Context(), pdf, services.TicketFilename(t, time.Now()), services.UploadMetadata(t))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "trip ticket JSON file")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
