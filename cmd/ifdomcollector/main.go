// Command ifdomcollector is the main Interface DOM Collector binary.
//
// It loads the YAML device inventory, builds the full pipeline, and runs
// until interrupted (SIGINT / SIGTERM). SIGHUP reloads the configuration in
// place.
//
// Usage:
//
//	ifdomcollector -config collector.yml [flags]
//
// The eos and entsensor dialects are served out of the box (eAPI and SNMP).
// The nxapi, nxos-ssh, and ios-ssh dialects need transports that depend on
// the deployment's session tooling; embed the app package and inject a
// RunnerFactory to serve them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vpbank/ifdom_collector/driver"
	"github.com/vpbank/ifdom_collector/driver/eapi"
	"github.com/vpbank/ifdom_collector/pkg/ifdomcollector/app"
	"github.com/vpbank/ifdom_collector/pkg/ifdomcollector/config"
	filetransport "github.com/vpbank/ifdom_collector/transport/file"
	"github.com/vpbank/ifdom_collector/transport/influx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ifdomcollector: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ── Flags ────────────────────────────────────────────────────────────
	var (
		cfgPath   string
		logLevel  string
		logFmt    string
		pretty    bool
		debugDump bool
		bufSize   int

		// File transport
		filePath       string
		fileMaxBytes   int64
		fileMaxBackups int

		// InfluxDB sink
		influxURL  string
		influxDB   string
		influxUser string
		influxPass string
		influxRP   string
	)

	flag.StringVar(&cfgPath, "config", "collector.yml", "YAML configuration file")
	flag.StringVar(&logLevel, "log.level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&logFmt, "log.fmt", "json", "Log format: json, text")
	flag.BoolVar(&pretty, "format.pretty", false, "Pretty-print JSON output")
	flag.BoolVar(&debugDump, "debug.dump", false, "Log every batch as per-metric debug lines")
	flag.IntVar(&bufSize, "pipeline.buffer.size", 1000, "Inter-stage channel buffer size")

	flag.StringVar(&filePath, "transport.file.path", "", "Output file (empty=stdout)")
	flag.Int64Var(&fileMaxBytes, "transport.file.max.bytes", 0, "Max file size in bytes before rotation (0=disabled)")
	flag.IntVar(&fileMaxBackups, "transport.file.max.backups", 5, "Max rotated backup files to keep (0=unlimited)")

	flag.StringVar(&influxURL, "influx.url", "", "InfluxDB endpoint (empty=disabled)")
	flag.StringVar(&influxDB, "influx.database", "ifdom", "InfluxDB database name")
	flag.StringVar(&influxUser, "influx.username", "", "InfluxDB username")
	flag.StringVar(&influxPass, "influx.password", "", "InfluxDB password")
	flag.StringVar(&influxRP, "influx.rp", "", "InfluxDB retention policy (empty=database default)")

	flag.Parse()

	// ── Logger ───────────────────────────────────────────────────────────
	logger, err := buildLogger(logLevel, logFmt)
	if err != nil {
		return err
	}

	// ── Build App ────────────────────────────────────────────────────────
	cfg := app.Config{
		ConfigPath:  cfgPath,
		Runners:     buildRunner,
		BufferSize:  bufSize,
		PrettyPrint: pretty,
		DebugDump:   debugDump,
	}

	if filePath != "" {
		rf, err := filetransport.NewRotatingFile(filetransport.RotateConfig{
			FilePath:   filePath,
			MaxBytes:   fileMaxBytes,
			MaxBackups: fileMaxBackups,
		}, logger)
		if err != nil {
			return fmt.Errorf("open output file: %w", err)
		}
		defer rf.Close()
		cfg.TransportWriter = rf
	}

	if influxURL != "" {
		cfg.Influx = &influx.Config{
			URL:             influxURL,
			Database:        influxDB,
			Username:        influxUser,
			Password:        influxPass,
			RetentionPolicy: influxRP,
		}
	}

	application := app.New(cfg, logger)

	// ── Start ────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	// SIGHUP reloads the device inventory without restarting.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := application.Reload(); err != nil {
				logger.Error("ifdomcollector: reload failed", "error", err.Error())
			}
		}
	}()

	logger.Info("ifdomcollector: running — press Ctrl-C to stop")

	// Block until signal.
	<-ctx.Done()
	logger.Info("ifdomcollector: received shutdown signal")

	signal.Stop(hup)
	close(hup)
	application.Stop()
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// buildRunner serves the eos dialect over eAPI using the device's api block.
// The other CLI/API dialects have no built-in transport here.
func buildRunner(dev config.DeviceConfig) (driver.Runner, error) {
	if dev.Dialect != "eos" {
		return nil, fmt.Errorf("no built-in transport for dialect %q", dev.Dialect)
	}
	return eapi.New(eapi.Config{
		Host:     dev.IP,
		Scheme:   dev.API.Scheme,
		Port:     int(dev.API.Port),
		Username: dev.API.Username,
		Password: dev.API.Password,
		Timeout:  time.Duration(dev.API.Timeout) * time.Millisecond,
		Insecure: dev.API.Insecure,
	})
}

func buildLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q (expected debug|info|warn|error)", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler

	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (expected json|text)", format)
	}

	return slog.New(handler), nil
}
