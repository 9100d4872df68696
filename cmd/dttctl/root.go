package main

import (
	"encoding/json"
	"fmt"
	"os"

	intconfig "dtt/internal/config"
	"dtt/internal/domain/models"
	"dtt/internal/services"
	"dtt/internal/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	profile   string
	leftLogo  string
	rightLogo string
	verbose   bool
	log       *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "dttctl",
		Short:        "Driver's Trip Ticket tools",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			log, err := utils.NewLogger(level, opts.verbose)
			if err != nil {
				return err
			}
			opts.log = log
			zap.ReplaceGlobals(log)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.profile, "profile", os.Getenv("FORM_PROFILE"), "form profile YAML (defaults to the built-in Region II form)")
	cmd.PersistentFlags().StringVar(&opts.leftLogo, "left-logo", "", "image file replacing the profile's left header logo")
	cmd.PersistentFlags().StringVar(&opts.rightLogo, "right-logo", "", "image file replacing the profile's right header logo")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newRenderCmd(opts),
		newPeriodCmd(),
		newUploadCmd(opts),
		newAuthCmd(opts),
	)
	return cmd
}

func (o *rootOptions) logger() *zap.Logger {
	if o.log == nil {
		return zap.NewNop()
	}
	return o.log
}

func (o *rootOptions) renderer() (*services.TicketRenderer, error) {
	profile := intconfig.DefaultFormProfile()
	if o.profile != "" {
		var err error
		if profile, err = intconfig.LoadFormProfile(o.profile); err != nil {
			return nil, fmt.Errorf("load profile %s: %w", o.profile, err)
		}
	}
	r := services.NewTicketRenderer(profile, o.logger().Named("pdf"))

	left, err := readOptional(o.leftLogo)
	if err != nil {
		return nil, err
	}
	right, err := readOptional(o.rightLogo)
	if err != nil {
		return nil, err
	}
	r.SetLogos(left, right)
	return r, nil
}

func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	return raw, nil
}

func readTicket(path string) (models.TripTicket, error) {
	var t models.TripTicket
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}
