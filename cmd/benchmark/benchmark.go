package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	cache "github.com/krisalay/recency-cache"
	"github.com/krisalay/recency-cache/config"
	"github.com/krisalay/recency-cache/datasource"
	"github.com/krisalay/recency-cache/engine"
	"github.com/krisalay/recency-cache/metrics"
	"github.com/krisalay/recency-cache/types"
	"github.com/krisalay/recency-cache/workload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path of a YAML/TOML/JSON config file",
	}
	capacityFlag = &cli.IntFlag{
		Name:  "capacity",
		Usage: "maximum number of cached records",
	}
	dataFlag = &cli.StringFlag{
		Name:  "data",
		Usage: "backing data file (key<TAB>value per line)",
	}
	workloadFlag = &cli.StringFlag{
		Name:  "workload",
		Usage: "request file (one key per line); empty for a synthetic Zipf workload",
	}
	indexedFlag = &cli.BoolFlag{
		Name:  "indexed",
		Usage: "load the data file into memory instead of scanning it on every miss",
	}
	rebuildFlag = &cli.BoolFlag{
		Name:  "rebuild",
		Usage: "rebuild the recency index from scratch on every hit",
	}
	zipfRequestsFlag = &cli.IntFlag{
		Name:  "zipf-n",
		Usage: "number of synthetic requests",
	}
	zipfUniverseFlag = &cli.IntFlag{
		Name:  "zipf-universe",
		Usage: "number of data file keys the synthetic workload draws from",
	}
	zipfSeedFlag = &cli.Int64Flag{
		Name:  "zipf-seed",
		Usage: "seed of the synthetic workload",
	}
	metricsAddrFlag = &cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "serve Prometheus metrics on this address and keep serving after the run",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "debug, info, warn or error",
	}

	recordsFlag = &cli.IntFlag{
		Name:  "records",
		Value: 50000,
		Usage: "number of data records to generate",
	}
	requestsFlag = &cli.IntFlag{
		Name:  "requests",
		Value: 500000,
		Usage: "number of requests to generate",
	}
	seedFlag = &cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "seed of the generated workload",
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "benchmark",
		Usage: "measure the hit ratio and speed of the recency cache",
		Flags: []cli.Flag{
			configFlag, capacityFlag, dataFlag, workloadFlag, indexedFlag, rebuildFlag,
			zipfRequestsFlag, zipfUniverseFlag, zipfSeedFlag, metricsAddrFlag, logLevelFlag,
		},
		Action: benchmark,
		Commands: []*cli.Command{
			{
				Name:      "gen",
				Usage:     "generate a data file and a Zipf workload file",
				ArgsUsage: "<data file> <workload file>",
				Flags:     []cli.Flag{recordsFlag, requestsFlag, seedFlag},
				Action:    generate,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and environment, then applies any flag
// the user set explicitly.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		return nil, err
	}

	if ctx.IsSet(capacityFlag.Name) {
		cfg.Capacity = ctx.Int(capacityFlag.Name)
	}
	if ctx.IsSet(dataFlag.Name) {
		cfg.Data = ctx.String(dataFlag.Name)
	}
	if ctx.IsSet(workloadFlag.Name) {
		cfg.Workload = ctx.String(workloadFlag.Name)
	}
	if ctx.IsSet(indexedFlag.Name) {
		cfg.Indexed = ctx.Bool(indexedFlag.Name)
	}
	if ctx.IsSet(rebuildFlag.Name) {
		cfg.Rebuild = ctx.Bool(rebuildFlag.Name)
	}
	if ctx.IsSet(zipfRequestsFlag.Name) {
		cfg.Zipf.Requests = ctx.Int(zipfRequestsFlag.Name)
	}
	if ctx.IsSet(zipfUniverseFlag.Name) {
		cfg.Zipf.Universe = ctx.Int(zipfUniverseFlag.Name)
	}
	if ctx.IsSet(zipfSeedFlag.Name) {
		cfg.Zipf.Seed = ctx.Int64(zipfSeedFlag.Name)
	}
	if ctx.IsSet(metricsAddrFlag.Name) {
		cfg.Metrics.Addr = ctx.String(metricsAddrFlag.Name)
	}
	if ctx.IsSet(logLevelFlag.Name) {
		cfg.Log.Level = ctx.String(logLevelFlag.Name)
	}

	return cfg, cfg.Validate()
}

func benchmark(cliCtx *cli.Context) error {
	cfg, err := loadConfig(cliCtx)
	if err != nil {
		return err
	}
	log, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------- Backing Store ----------------
	var src types.Source[string, string]
	var universe []string
	if cfg.Indexed || cfg.Workload == "" {
		ix, err := datasource.LoadIndexed(ctx, cfg.Data)
		if err != nil {
			return err
		}
		universe = zipfUniverse(ix.Keys(), cfg.Zipf.Universe)
		src = ix
	}
	if !cfg.Indexed {
		src = datasource.NewFile(cfg.Data)
	}

	// ---------------- Requests ----------------
	var requests workload.Source
	if cfg.Workload != "" {
		r, err := workload.Open(cfg.Workload)
		if err != nil {
			return err
		}
		defer r.Close()
		requests = r
	} else {
		z, err := workload.NewZipf(universe, cfg.Zipf.Requests, cfg.Zipf.Seed, cfg.Zipf.Skew)
		if err != nil {
			return err
		}
		requests = z
	}

	// ---------------- Metrics ----------------
	reg := prometheus.NewRegistry()
	events, err := metrics.NewEvents(cfg.Metrics.Namespace, reg)
	if err != nil {
		return err
	}

	// ---------------- Cache ----------------
	opts := []cache.Option{cache.WithLogger(log), cache.WithMetrics(events)}
	if cfg.Rebuild {
		opts = append(opts, cache.WithFullRebuild())
	}
	c, err := cache.New[string, string](cfg.Capacity, opts...)
	if err != nil {
		return err
	}

	log.Info("starting run",
		zap.Int("capacity", cfg.Capacity),
		zap.String("data", cfg.Data),
		zap.String("workload", cfg.Workload),
		zap.Bool("indexed", cfg.Indexed),
		zap.Bool("rebuild", cfg.Rebuild))

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		rep, err := engine.NewReadThrough[string](c, src, log).Run(gctx, requests)
		if err != nil {
			return err
		}
		printReport(rep)

		// The cache is idle from here on, so its own counters can be
		// exported as well.
		if err := reg.Register(metrics.NewCollector(cfg.Metrics.Namespace, c)); err != nil {
			return errors.Wrap(err, "register cache collector")
		}
		if cfg.Metrics.Addr == "" {
			stop()
		} else {
			log.Info("run finished; serving final metrics until interrupted")
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// zipfUniverse returns the first n keys, or all of them if there are fewer.
func zipfUniverse(keys []string, n int) []string {
	return keys[:min(max(n, 0), len(keys))]
}

func printReport(rep engine.Report) {
	fmt.Println("Lookups : ", rep.Lookups)
	fmt.Println("Hits : ", rep.Hits)
	fmt.Println("Misses : ", rep.Misses)
	fmt.Printf("Hitratio: %.4f%%\n", rep.HitRatio*100)
	fmt.Printf("Duration time : %.3f seconds\n", rep.Duration.Seconds())
	if n := len(rep.Missing); n > 0 {
		fmt.Printf("Keys missing from the data file : %d\n", n)
	}
}

func generate(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return errors.New("usage: benchmark gen <data file> <workload file>")
	}
	dataPath, workloadPath := ctx.Args().Get(0), ctx.Args().Get(1)

	keys := workload.SyntheticKeys(ctx.Int(recordsFlag.Name))
	values := make(map[string]string, len(keys))
	for i, k := range keys {
		values[k] = fmt.Sprintf("value-%d", i)
	}

	if err := writeFile(dataPath, func(f *os.File) error {
		return datasource.WriteRecords(f, keys, values)
	}); err != nil {
		return err
	}

	z, err := workload.NewZipf(keys, ctx.Int(requestsFlag.Name), ctx.Int64(seedFlag.Name), workload.DefaultSkew)
	if err != nil {
		return err
	}
	return writeFile(workloadPath, func(f *os.File) error {
		_, err := workload.WriteRequests(f, z)
		return err
	})
}

func writeFile(path string, fill func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
