package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlimIO/Winelog/internal/eventlog"
	"github.com/SlimIO/Winelog/internal/evtstore"
	"github.com/SlimIO/Winelog/internal/runtime"
	"github.com/SlimIO/Winelog/internal/utils/fileutil"
	"github.com/SlimIO/Winelog/internal/utils/fmtutil"
	"github.com/SlimIO/Winelog/internal/utils/logger"
	"github.com/SlimIO/Winelog/pkg/errors"
	"github.com/spf13/cobra"
)

// openStore returns the event store the read command uses.
var openStore = func() (evtstore.Store, error) {
	if runtime.FixturePath != "" {
		return evtstore.LoadFixture(runtime.FixturePath)
	}
	return evtstore.OpenDefault()
}

type readFlags struct {
	file    bool
	query   string
	forward bool
	limit   int
	format  string
	targets string
}

func newReadCmd() *cobra.Command {
	var f readFlags
	cmd := &cobra.Command{
		Use:   "read [name...]",
		Short: "Read events from channels or exported .evtx files",
		// Short: 从通道或导出的 .evtx 文件读取事件
		Long: `Read events from one or more channels (System, Security, Microsoft-Windows-Sysmon/Operational)
or, with --file, from exported .evtx files. A file name without a path is looked up in
reader.log_directory. Several names are read concurrently and printed in the order given.
从一个或多个通道读取事件，或使用 --file 从导出的 .evtx 文件读取。`,
		Example: `  winelog read System --limit 20 --format table
  winelog read Security --query "*[System[(EventID=4624)]]"
  winelog read --file Archive C:/exports/app.evtx --forward
  winelog read Application --fixture testdata/app.jsonl.zst`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(cmd, args, f)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&f.file, "file", false, "Treat names as .evtx file names or paths instead of channels")
	flags.StringVarP(&f.query, "query", "q", "", "Query passed to the event store; empty selects every record")
	flags.BoolVar(&f.forward, "forward", false, "Read oldest records first (default: reader.direction)")
	flags.IntVarP(&f.limit, "limit", "n", 0, "Stop each target after N rows (0 = no limit)")
	flags.StringVarP(&f.format, "format", "o", "json", "Output format: json or table")
	flags.StringVar(&f.targets, "targets", "", "File listing one channel or file name per line")
	return cmd
}

func runRead(cmd *cobra.Command, args []string, f readFlags) error {
	ctx := cmd.Context()
	log := logger.Get(ctx)
	cfg := configFromContext(ctx)

	names := append([]string(nil), args...)
	if f.targets != "" {
		lines, err := fileutil.ReadLines(f.targets)
		if err != nil {
			return fmt.Errorf("read targets file: %w", err)
		}
		names = append(names, lines...)
	}
	if len(names) == 0 {
		return errors.New("no channel or file name given")
	}
	if f.limit < 0 {
		return fmt.Errorf("invalid --limit %d", f.limit)
	}

	out, err := newRowWriter(f.format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	opts, err := cfg.Reader.Options()
	if err != nil {
		return err
	}
	direction := cfg.Reader.ReadDirection()
	if f.forward {
		direction = evtstore.Forward
	}
	kind := evtstore.KindChannel
	if f.file {
		kind = evtstore.KindFile
	}
	targets := make([]eventlog.QueryTarget, len(names))
	for i, name := range names {
		targets[i] = eventlog.QueryTarget{Name: name, Kind: kind, Query: f.query, Direction: direction}
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		addr, shutdown, err := serveMetrics(ctx, fmt.Sprintf(":%d", cfg.Metrics.Port))
		if err != nil {
			log.Warnf("[WARN]  Metrics server not started: %v", err)
		} else {
			defer shutdown()
			log.Infof("[INFO]  Metrics server listening on %s", addr)
		}
	}

	engine := eventlog.New(store, opts)
	start := time.Now()
	var total uint64
	emit := func(row eventlog.LogRow) error {
		total++
		return out.Write(row)
	}

	err = readTargets(ctx, engine, targets, f.limit, emit)
	if ferr := out.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	log.Infof("[READ] %s rows from %d target(s) in %s (%s)",
		fmtutil.FormatCount(total), len(targets), fmtutil.FormatDuration(elapsed), fmtutil.FormatRate(total, elapsed, "rows"))
	return nil
}

// readTargets reads several targets concurrently unless a limit asks for
// early cancellation, in which case each target is streamed in turn.
func readTargets(ctx context.Context, engine *eventlog.Engine, targets []eventlog.QueryTarget, limit int, emit func(eventlog.LogRow) error) error {
	if len(targets) > 1 && limit == 0 {
		results, err := engine.ReadMany(ctx, targets)
		if err != nil {
			return err
		}
		for _, rows := range results {
			for _, row := range rows {
				if err := emit(row); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for _, target := range targets {
		n := 0
		for row, err := range engine.Rows(ctx, target) {
			if err != nil {
				return err
			}
			if err := emit(row); err != nil {
				return err
			}
			n++
			if limit > 0 && n >= limit {
				break
			}
		}
	}
	return nil
}
