package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"vhostlog/internal/audit"
	"vhostlog/internal/config"
	"vhostlog/internal/dashboard"
	"vhostlog/internal/ingest"
	"vhostlog/internal/pipeline"
	"vhostlog/internal/route"
	"vhostlog/internal/sink"
	"vhostlog/internal/state"
	"vhostlog/internal/tally"
	"vhostlog/internal/types"
)

func main() {
	fs := flag.NewFlagSet("vhostlog", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config file (optional)")
	prefix := fs.String("prefix", "", "Root of the per-domain log tree (default /home/httpd)")
	input := fs.String("input", "", "Read this file instead of stdin")
	follow := fs.Bool("follow", false, "Keep following -input as it grows (survives rotation)")
	fromEnd := fs.Bool("from-end", false, "With -follow, skip lines already in the file")
	workers := fs.Int("workers", 0, "Number of routing workers (default 1)")
	rejectLog := fs.String("reject-log", "", "Append lines that fail to route to this JSON lines file")
	statePath := fs.String("state", "", "SQLite file keeping per-destination counters")
	listen := fs.String("listen", "", "Serve /metrics and the stats API on this address")
	showStats := fs.Bool("stats", false, "Print the counters saved in -state and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vhostlog [flags] [suffix]\n\n")
		fmt.Fprintf(os.Stderr, "Splits a merged virtual host access log read from stdin into\n")
		fmt.Fprintf(os.Stderr, "{prefix}/{domain}/logs/{YYYY}-{MM}[.suffix]/{host} files.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	// flags win over the config file
	if *prefix != "" {
		cfg.Routing.Prefix = *prefix
	}
	if *input != "" {
		cfg.Input.Path = *input
	}
	if *follow {
		cfg.Input.Follow = true
	}
	if *fromEnd {
		cfg.Input.FromEnd = true
	}
	if *workers > 0 {
		cfg.Routing.Workers = *workers
	}
	if *rejectLog != "" {
		cfg.Output.RejectLogPath = *rejectLog
	}
	if *statePath != "" {
		cfg.State.DBPath = *statePath
	}
	if *listen != "" {
		cfg.Dashboard.Enabled = true
		cfg.Dashboard.Listen = *listen
	}
	if fs.NArg() > 0 {
		cfg.Routing.Suffix = fs.Arg(0)
	}

	if *showStats {
		if err := statsCommand(cfg); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	runCommand(cfg)
}

func runCommand(cfg *types.Config) {
	suffix := config.ParseSuffix(cfg.Routing.Suffix)

	fsink := sink.NewFS(os.FileMode(cfg.Output.DirMode), os.FileMode(cfg.Output.FileMode))
	router := route.NewRouter(cfg.Routing.Prefix, suffix, fsink, fsink)

	acc := tally.NewAccumulator()

	var stateStore *state.Store
	if cfg.State.DBPath != "" {
		s, err := state.NewStore(cfg.State.DBPath)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize state store: %v", err)
		} else {
			stateStore = s
			defer stateStore.Close()
			entries, err := stateStore.LoadAll()
			if err == nil {
				acc.ReplaceAll(entries)
				log.Printf("[STATE] Restored counters for %d destinations", len(entries))
			}
			acc.OnEvict(func(e tally.Entry) {
				if err := stateStore.SaveAll(map[string]tally.Entry{e.File: e}); err != nil {
					log.Printf("[STATE] Failed to save evicted counters for %s: %v", e.File, err)
				}
			})
		}
	}

	opts := pipeline.Options{
		Workers: cfg.Routing.Workers,
		Tally:   acc,
	}
	if cfg.Output.RejectLogPath != "" {
		rejects := audit.NewLogger(cfg.Output.RejectLogPath)
		defer rejects.Close()
		opts.Rejects = rejects
	}
	driver := pipeline.NewDriver(router, opts)

	if cfg.Dashboard.Enabled {
		srv := dashboard.NewServer(acc, cfg.Dashboard.Listen)
		go func() {
			if err := srv.Start(); err != nil {
				log.Printf("[DASHBOARD] Failed to start: %v", err)
			}
		}()
	}

	ingester, err := newIngester(cfg)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	lines, err := ingester.Start()
	if err != nil {
		log.Fatalf("Failed to start input: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("[INGEST] %v received, draining input...", sig)
		ingester.Stop()
	}()

	summary := driver.Run(lines)

	if stateStore != nil {
		if err := stateStore.SaveAll(acc.Drain()); err != nil {
			log.Printf("[STATE] Failed to save counters: %v", err)
		}
	}

	log.Printf("Done: %d lines read, %d routed, %d discarded, %d failed",
		summary.Read, summary.Routed, summary.Discarded, summary.Failed)
}

func newIngester(cfg *types.Config) (ingest.Ingester, error) {
	if cfg.Input.Path == "" {
		return ingest.NewReaderIngester("stdin", os.Stdin), nil
	}
	if cfg.Input.Follow {
		return ingest.NewFileTailer(cfg.Input.Path, cfg.Input.FromEnd), nil
	}
	f, err := os.Open(cfg.Input.Path)
	if err != nil {
		return nil, err
	}
	return ingest.NewReaderIngester(cfg.Input.Path, f), nil
}

func statsCommand(cfg *types.Config) error {
	if cfg.State.DBPath == "" {
		return fmt.Errorf("-stats needs -state or state.db_path")
	}

	s, err := state.NewStore(cfg.State.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to read counters: %w", err)
	}
	list := make([]tally.Entry, 0, len(entries))
	for _, e := range entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Month != list[j].Month {
			return list[i].Month < list[j].Month
		}
		return list[i].File < list[j].File
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MONTH\tDOMAIN\tLINES\tBYTES\tLAST SEEN\tFILE")
	for _, e := range list {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			sanitize(e.Month), sanitize(e.Domain), e.Lines, e.Bytes,
			e.LastSeen.Format("2006-01-02 15:04:05"), sanitize(e.File))
	}
	return w.Flush()
}

// sanitize strips control characters; domains come straight from the logs
func sanitize(s string) string {
	var builder strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
