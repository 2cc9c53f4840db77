package main

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/cwbudde/clvecsum/internal/backend"
	"github.com/cwbudde/clvecsum/internal/compute"
	"github.com/cwbudde/clvecsum/internal/compute/host"
	"github.com/cwbudde/clvecsum/internal/config"
	"github.com/cwbudde/clvecsum/internal/store"
	"github.com/cwbudde/clvecsum/internal/vecsum"
)

var (
	backendName  string
	dataDir      string
	elements     int
	platformName string
	deviceType   string
	extensions   []string
	quiet        bool
	verify       bool
)

func init() {
	flags := rootCmd.Flags()
	flags.IntVarP(&elements, "elements", "n", vecsum.DefaultElements, "Vector length")
	flags.StringVar(&platformName, "platform", "", "Use the first platform whose name contains this text")
	flags.StringVar(&deviceType, "device-type", "", "Device type: gpu, cpu, accelerator, default, all (empty = backend default)")
	flags.StringSliceVar(&extensions, "extension", nil, `Require one of these device extensions ("any" = no requirement)`)
	flags.BoolVarP(&quiet, "quiet", "q", false, "Don't print vectors")
	flags.BoolVar(&verify, "verify", true, "Compare the result with the host computation")
}

// hostKernels registers the Go implementations the host backend runs.
func hostKernels() []host.Option {
	return []host.Option{host.WithKernel(vecsum.EntryPoint, vecsum.HostSum)}
}

// runReport is what a single sum run produced, successful or not.
type runReport struct {
	Platform   string
	Device     string
	Stage      vecsum.Stage
	Verified   bool
	Mismatches int
}

func runSum(cmd *cobra.Command, args []string) error {
	cfg := settings

	drv, b, err := backend.Open(cfg.Backend, hostKernels()...)
	if err != nil {
		return err
	}
	sel, err := cfg.Selection(b)
	if err != nil {
		return err
	}

	record := store.NewRunRecord(string(b), cfg.Elements)
	slog.Info("Starting sum run", "run_id", record.ID, "backend", b, "elements", cfg.Elements)

	var runStore store.Store
	var trace *store.TraceWriter
	observe := func(vecsum.Transition) {}
	if cfg.DataDir != "" {
		if runStore, err = openRunStore(cfg.DataDir); err != nil {
			return err
		}
		if trace, err = store.NewTraceWriter(cfg.DataDir, record.ID); err != nil {
			return err
		}
		observe = traceObserver(trace)
	}

	var out io.Writer = cmd.OutOrStdout()
	if cfg.Quiet {
		out = io.Discard
	}

	start := time.Now()
	report, runErr := executeSum(drv, sel, cfg, out, observe)
	record.Duration = time.Since(start)
	record.Platform = report.Platform
	record.Device = report.Device
	record.Stage = report.Stage.String()
	record.Verified = report.Verified
	record.Mismatches = report.Mismatches
	if runErr != nil {
		record.Error = runErr.Error()
	}

	if trace != nil {
		if err := trace.Close(); err != nil {
			slog.Warn("Failed to close trace", "run_id", record.ID, "error", err)
		}
	}
	if runStore != nil {
		if err := runStore.SaveRun(record); err != nil {
			slog.Error("Failed to save run record", "run_id", record.ID, "error", err)
		}
	}

	if runErr != nil {
		slog.Error("Sum run failed", "run_id", record.ID, "stage", report.Stage, "error", runErr)
		return runErr
	}
	slog.Info("Sum run complete",
		"run_id", record.ID,
		"device", record.Device,
		"elapsed", record.Duration,
		"verified", record.Verified,
	)
	return nil
}

// executeSum initializes a context on drv, runs the sum sequence on the
// reference inputs and releases the context again.
func executeSum(drv compute.Driver, sel compute.Selection, cfg config.Config, out io.Writer, observe func(vecsum.Transition)) (report runReport, err error) {
	if err := cfg.Validate(); err != nil {
		return report, err
	}
	ctx, err := compute.Initialize(drv, sel, compute.WithLogger(slog.Default()))
	if err != nil {
		return report, err
	}
	defer func() {
		if cerr := ctx.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	report.Platform = ctx.Platform().Info.Name
	report.Device = ctx.Device().Info.Name

	a, b := vecsum.Inputs(cfg.Elements)
	seq := vecsum.NewSequence(ctx,
		vecsum.WithOutput(out),
		vecsum.WithObserver(observe),
		vecsum.WithLogger(slog.Default()),
	)
	result, err := seq.Run(a, b)
	report.Stage = seq.Stage()
	if err != nil {
		return report, err
	}

	if cfg.Verify {
		report.Verified = true
		if err := vecsum.Verify(result, a, b); err != nil {
			var mismatch *vecsum.MismatchError
			if errors.As(err, &mismatch) {
				report.Mismatches = mismatch.Count
			}
			return report, err
		}
	}
	return report, nil
}

func traceObserver(tw *store.TraceWriter) func(vecsum.Transition) {
	return func(t vecsum.Transition) {
		entry := store.TraceEntry{
			From:      t.From.String(),
			To:        t.To.String(),
			Timestamp: t.At,
			Elapsed:   t.Elapsed,
		}
		if err := tw.Write(entry); err != nil {
			slog.Warn("Failed to write trace entry", "error", err)
		}
	}
}
