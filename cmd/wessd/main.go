// Command wessd runs the persistent Wasm function-as-a-service: it loads
// configuration, opens the embedded store, builds the module and compile
// caches, launches the Writer/Reader/Runner workers and the invalidation
// broadcast between them, and serves the HTTP front end.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wess-project/wessd/internal/compilecache"
	"github.com/wess-project/wessd/internal/config"
	"github.com/wess-project/wessd/internal/dispatcher"
	"github.com/wess-project/wessd/internal/engine"
	"github.com/wess-project/wessd/internal/logging"
	"github.com/wess-project/wessd/internal/metrics"
	"github.com/wess-project/wessd/internal/modulecache"
	"github.com/wess-project/wessd/internal/store"
	"github.com/wess-project/wessd/internal/workers"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	dev := flag.Bool("dev", false, "use database.dev_path and the colorized development logger")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wessd: %v\n", err)
		os.Exit(1)
	}

	rootLogger, err := logging.New(logging.ComponentDispatcher, logging.Config{
		Development:  *dev,
		EnableColors: *dev,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "wessd: logger: %v\n", err)
		os.Exit(1)
	}
	defer rootLogger.Sync() //nolint:errcheck

	if err := run(cfg, *dev, rootLogger); err != nil {
		rootLogger.Fatal("fatal error", zap.Error(err))
	}
}

func run(cfg *config.Config, dev bool, logger *zap.Logger) error {
	st, err := store.Open(cfg.DatabasePath(dev))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	modCache, err := modulecache.New(cfg.Reader.CacheSize)
	if err != nil {
		return fmt.Errorf("build module cache: %w", err)
	}

	bgCtx := context.Background()
	compCache, err := compilecache.New(bgCtx, cfg.Runner.CacheSize)
	if err != nil {
		return fmt.Errorf("build compile cache: %w", err)
	}

	eng := engine.New(logger.Named("engine"))
	defer eng.Close(bgCtx) //nolint:errcheck

	reg := prometheus.NewRegistry()
	m := metrics.New(reg, version, commit)

	writeJobs := make(chan workers.WriteJob, cfg.Writer.ChannelSize)
	readJobs := make(chan workers.ReadJob, cfg.Reader.ChannelSize)
	runJobs := make(chan workers.RunJob, cfg.Runner.ChannelSize)

	broadcast := workers.NewInvalidationBroadcast(logger.Named("broadcast"))

	writer := workers.NewWriter(writeJobs, broadcast.In(), st, logger.Named("writer"))
	reader := workers.NewReader(readJobs, broadcast.ToReader(), modCache, st, logger.Named("reader"))

	disp := dispatcher.New(writeJobs, readJobs, runJobs, eng, m, reg, logger.Named("dispatcher"))

	runner := workers.NewRunner(runJobs, broadcast.ToRunner(), compCache, eng, disp, m, m, logger.Named("runner"))

	go broadcast.Run()
	go writer.Run()
	go reader.Run()
	go runner.Run()

	go reportQueueDepths(bgCtx, m, writeJobs, readJobs, runJobs)
	go reportDatabaseSize(bgCtx, m, cfg.DatabasePath(dev))
	go reportVirtualMemory(bgCtx, m)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: disp.Mux(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-sigCh:
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// reportQueueDepths polls the three job queues' current length and updates
// the gauges spec.md §6 requires. len() on a channel is racy with respect
// to concurrent send/receive but is the idiomatic best-effort signal Go
// offers without threading an atomic counter through every enqueue.
func reportQueueDepths(ctx context.Context, m *metrics.Registry, writeJobs chan workers.WriteJob, readJobs chan workers.ReadJob, runJobs chan workers.RunJob) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.WriterQueueDepth.Set(float64(len(writeJobs)))
			m.ReaderQueueDepth.Set(float64(len(readJobs)))
			m.RunnerQueueDepth.Set(float64(len(runJobs)))
		}
	}
}

// reportDatabaseSize polls the store file's size on disk for the
// database_size_bytes gauge.
func reportDatabaseSize(ctx context.Context, m *metrics.Registry, path string) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if fi, err := os.Stat(path); err == nil {
				m.DatabaseSizeBytes.Set(float64(fi.Size()))
			}
		}
	}
}

// reportVirtualMemory polls this process's own VmSize out of
// /proc/self/status for the process_virtual_memory_bytes gauge. No pack
// dependency covers this: go-osstat's memory package reports host-wide
// totals (Total/Used/Free/Cached), not a single process's VSZ, so there is
// nothing to wire there for a gauge that is scoped to this process.
func reportVirtualMemory(ctx context.Context, m *metrics.Registry) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if v, ok := readVmSizeBytes(); ok {
				m.VirtualMemoryBytes.Set(v)
			}
		}
	}
}

// readVmSizeBytes parses the VmSize line out of /proc/self/status, which
// reports the calling process's current virtual memory size in kB.
func readVmSizeBytes() (float64, bool) {
	data, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return 0, false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "VmSize:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 || fields[2] != "kB" {
			return 0, false
		}
		kb, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0, false
		}
		return kb * 1024, true
	}
	return 0, false
}
