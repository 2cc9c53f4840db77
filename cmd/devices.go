package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cwbudde/clvecsum/internal/backend"
	"github.com/cwbudde/clvecsum/internal/compute"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List compute platforms and devices",
	Long: `Lists every platform and device the selected backend can see.
The device a sum run would use is marked with '*'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		drv, b, err := backend.Open(settings.Backend, hostKernels()...)
		if err != nil {
			return err
		}
		sel, err := settings.Selection(b)
		if err != nil {
			return err
		}
		return listDevices(cmd.OutOrStdout(), drv, sel)
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

// listDevices prints one row per device. Selection failures are not errors
// here; the listing simply marks nothing.
func listDevices(out io.Writer, drv compute.Driver, sel compute.Selection) error {
	platforms, err := drv.Platforms()
	if err != nil {
		return fmt.Errorf("failed to enumerate platforms: %w", err)
	}
	if len(platforms) == 0 {
		fmt.Fprintf(out, "No %s platforms found.\n", drv.Name())
		return nil
	}

	var chosen compute.Device
	var chosenPlatform string
	if p, err := compute.DiscoverPlatform(drv, sel.Platform); err == nil {
		if d, err := compute.SelectDevice(drv, p, sel.DeviceType, sel.Device); err == nil {
			chosen, chosenPlatform = d, p.Info.Name
		}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tPLATFORM\tDEVICE\tTYPE\tUNITS\tMEMORY\tSHARING")
	count := 0
	for _, p := range platforms {
		devices, err := drv.Devices(p, compute.DeviceTypeAll)
		if err != nil {
			return fmt.Errorf("failed to enumerate devices of %s: %w", p.Info.Name, err)
		}
		for _, d := range devices {
			mark := " "
			if p.Info.Name == chosenPlatform && d.Info.Name == chosen.Info.Name {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
				mark,
				p.Info.Name,
				d.Info.Name,
				d.Info.Type,
				d.Info.MaxComputeUnits,
				humanize.IBytes(d.Info.GlobalMemBytes),
				sharingSupport(d.Info),
			)
			count++
		}
	}
	w.Flush()

	fmt.Fprintf(out, "\nBackend: %s, %d platform(s), %d device(s)\n", drv.Name(), len(platforms), count)
	return nil
}

func sharingSupport(info compute.DeviceInfo) string {
	var found []string
	for _, ext := range compute.SharingExtensions {
		if info.HasExtension(ext) {
			found = append(found, ext)
		}
	}
	if len(found) == 0 {
		return "no"
	}
	return strings.Join(found, ",")
}
