package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Softbalance/equipment/internal/discovery/usb"
	"github.com/Softbalance/equipment/internal/service"
)

func newDiscoverCmd(g *globals) *cobra.Command {
	var (
		scanType string
		timeout  time.Duration
		ranges   []string
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Scan USB, serial and network ports for devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg.Discovery
			if timeout > 0 {
				cfg.ScanTimeout = timeout
			}
			if len(ranges) > 0 {
				cfg.TCPEnabled = true
				cfg.NetworkRanges = ranges
			}
			scanner := usb.NewScanner(g.logger, &usb.Config{ScanTimeout: cfg.ScanTimeout}, nil)
			discovery := service.NewDiscoveryService(&cfg, scanner, nil, g.logger)

			devices, err := discovery.ScanDevices(cmd.Context(), &service.ScanRequest{ScanType: scanType})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), devices)
		},
	}

	cmd.Flags().StringVar(&scanType, "type", "all", "Scanner to run: all, usb, serial or tcp")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overrides discovery.scan_timeout")
	cmd.Flags().StringSliceVar(&ranges, "range", nil, "CIDR ranges to sweep for network printers, enables the tcp scanner")
	return cmd
}
