package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/SAWGraph/public/internal/core/config"
	"github.com/SAWGraph/public/internal/core/observability"
	"github.com/SAWGraph/public/internal/core/server"
	"github.com/SAWGraph/public/internal/debuglog"
	"github.com/SAWGraph/public/internal/logger"
	h3mapper "github.com/SAWGraph/public/internal/mapper/h3"
	"github.com/SAWGraph/public/internal/mapview"
	"github.com/SAWGraph/public/internal/metrics"
	"github.com/SAWGraph/public/internal/pipeline"
	"github.com/SAWGraph/public/internal/queryevents"
	"github.com/SAWGraph/public/internal/session"
	"github.com/SAWGraph/public/internal/session/redisslot"
	"github.com/SAWGraph/public/internal/sparql/client"
	"github.com/SAWGraph/public/internal/vocabulary"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// overriding endpoint via flag
	endpointFlag := flag.String("endpoint", "", "SPARQL endpoint URL")
	flag.Parse()

	cfg := config.FromEnv()
	if *endpointFlag != "" {
		cfg.SPARQL.Endpoint = strings.TrimSpace(*endpointFlag)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "sawgraph-demo",
		Component: "server",
	}, os.Stdout)

	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting sawgraph demo",
		"addr", cfg.Addr,
		"version", Version,
		"session", cfg.Session.Backend,
		"events", cfg.Events.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vocab, err := vocabulary.Load(cfg.VocabularyFile)
	if err != nil {
		appLog.Error("vocabulary load failed", "err", err, "file", cfg.VocabularyFile)
		return 1
	}

	sc, err := client.New(appLog, client.Config{
		Endpoint: cfg.SPARQL.Endpoint,
		Username: cfg.SPARQL.User,
		Password: cfg.SPARQL.Password,
		Method:   cfg.SPARQL.Method,
		Timeout:  cfg.SPARQL.Timeout,
	})
	if err != nil {
		appLog.Error("failed to initialize sparql client", "err", err)
		return 1
	}
	appLog.Info("sparql endpoint", "endpoint", sc.Endpoint(), "timeout", sc.Timeout().String())

	cells, err := h3mapper.New(cfg.H3Res)
	if err != nil {
		appLog.Error("invalid h3 resolution", "err", err)
		return 1
	}

	var slot session.Slot[pipeline.View] = session.NewMemory[pipeline.View]()
	if cfg.Session.Backend == "redis" {
		rc, err := redisslot.NewClient(ctx, cfg.Session.RedisAddr)
		if err != nil {
			appLog.Error("redis session backend unavailable", "err", err, "addr", cfg.Session.RedisAddr)
			return 1
		}
		defer func() { _ = rc.Close() }()
		slot = redisslot.New[pipeline.View](rc, redisslot.Key(sc.Endpoint()), cfg.Session.TTL)
	}

	var events queryevents.Sink = queryevents.Nop{}
	if cfg.Events.Enabled {
		pub, err := queryevents.NewPublisher(appLog, strings.Split(cfg.Events.Brokers, ","), cfg.Events.Topic, 1024)
		if err != nil {
			appLog.Error("query events disabled", "err", err)
		} else {
			events = pub
			defer func() {
				if err := pub.Close(); err != nil {
					appLog.Warn("query events close", "err", err)
				}
			}()
		}
	}

	style := mapview.DefaultStyle()
	for k, v := range cfg.CategoryColors {
		style.Colors[k] = v
	}

	svc := pipeline.New(appLog, sc, vocab, pipeline.Options{
		Style:  style,
		Cells:  cells,
		Slot:   slot,
		Events: events,
	})

	deps := server.Deps{
		Runner:   svc,
		Exec:     sc,
		Prober:   sc,
		DebugLog: debuglog.New(cfg.DebugLogSize),
	}

	if cfg.Metrics.Enabled {
		p := metrics.Init(metrics.Config{
			Enabled: true,
			Addr:    cfg.Metrics.Addr,
			Path:    cfg.Metrics.Path,
			Build: metrics.BuildInfo{
				Version:   os.Getenv("BUILD_VERSION"),
				Revision:  os.Getenv("BUILD_REVISION"),
				Branch:    os.Getenv("BUILD_BRANCH"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		observability.Init(p.Registerer(), true)
		deps.Metrics = p.Handler()

		if cfg.Metrics.Addr != "" && cfg.Metrics.Addr != cfg.Addr {
			go func() {
				if err := p.Serve(ctx, appLog); err != nil {
					appLog.Error("metrics server exited", "err", err)
				}
			}()
		}
	} else {
		observability.Init(nil, false)
	}

	handler, err := server.NewRouter(appLog, deps)
	if err != nil {
		appLog.Error("router setup failed", "err", err)
		return 1
	}

	if err := server.Run(ctx, cfg, appLog, handler); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
