package main

import (
	"fmt"

	"dtt/internal/utils"

	"github.com/spf13/cobra"
)

func newPeriodCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "period FROM TO",
		Short: "Print the period-covered text for two dates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), utils.FormatPeriodDates(args[0], args[1]))
			return nil
		},
	}
}
