package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/discovery"
	"github.com/inkwell-dev/inkwell/internal/ui"
)

var discoverTimeout int

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List inkwell-server instances on the local network",
	Long: `Browse mDNS for inkwell-server instances advertising ` + discovery.ServiceType + `.

Servers started with 'inkwell-server serve' advertise themselves unless
--advertise=false is given.`,
	Example: `  # Scan for 5 seconds (default)
  inkwell discover

  # Longer scan for busy networks
  inkwell discover --timeout 15`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&discoverTimeout, "timeout", int(discovery.DefaultScanTimeout/time.Second), "Scan timeout in seconds")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintPleaseWait("Scanning for inkwell servers", fmt.Sprintf("%ds", discoverTimeout))

	backends, err := discovery.Discover(time.Duration(discoverTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(backends) == 0 {
		p.PrintWarning("No servers found",
			ui.Param{Key: "Hint", Value: "Check that inkwell-server is running on this network"},
			ui.Param{Key: "Hint", Value: "Try a longer --timeout"},
		)
		return nil
	}

	details := make([]ui.Param, 0, len(backends))
	for _, b := range backends {
		value := b.BaseURL()
		if v := b.GetMetadata("version"); v != "" {
			value += " (" + v + ")"
		}
		details = append(details, ui.Param{Key: b.Instance, Value: value})
	}
	p.PrintSuccess(fmt.Sprintf("Found %d server(s)", len(backends)), details...)
	p.Println("Use 'inkwell edit --server <url>' or 'inkwell edit --discover' to connect")
	return nil
}
