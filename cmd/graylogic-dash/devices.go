package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-dashboard/internal/device"
	"github.com/nerrad567/gray-logic-dashboard/internal/gateway"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/config"
)

func newDevicesCmd(configPath *string) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Fetch the gateway's device list and print it as JSON",
		Long: `Fetch the device list from the configured gateway once and print it.

Entries that fail validation are dropped and reported on stderr unless
--raw is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadPath(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			gw := gateway.New(cfg.Gateway)
			devices, err := gw.FetchDevices(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching devices from %s: %w", gw.BaseURL(), err)
			}

			if !raw {
				var rejected []error
				devices, rejected = device.SanitizeDevices(devices)
				for _, r := range rejected {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipped %v\n", r)
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(devices)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the list as received, without validation")
	return cmd
}
