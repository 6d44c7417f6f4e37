package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/bus"
	"main/internal/engine"
	ingest "main/internal/ingest/binance"
	"main/internal/journal"
	"main/internal/maker"
	"main/internal/obs"
	exchange "main/internal/order/delegator/binance"
	"main/internal/ops"
	"main/internal/risk"
	"main/pkg/conn"
)

type emptyLogger struct{}

func (emptyLogger) Infof(format string, args ...any)  {}
func (emptyLogger) Debugf(format string, args ...any) {}
func (emptyLogger) Errorf(format string, args ...any) {}

func main() {
	configPath := flag.String("config", "config.json", "Path to JSON config")
	flag.Parse()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if loaded.Pyroscope.Enable {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "maker",
			ServerAddress:   loaded.Pyroscope.ServerAddress,
			Tags: map[string]string{
				"symbol": loaded.Maker.Symbol,
			},
			Logger: emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-sys.Shutdown()
		cancel()
	}()

	var recorder maker.Recorder
	if loaded.Postgres.Enabled() {
		client, err := conn.New(loaded.Postgres)
		if err != nil {
			log.Fatalf("postgres connect failed: %v", err)
		}
		defer func() {
			_ = client.Close()
		}()

		j, err := journal.New(client, loaded.Maker.Symbol, loaded.Maker.PriceScale, loaded.Maker.QuantityScale)
		if err != nil {
			log.Fatalf("journal init failed: %v", err)
		}
		// The journal outlives the engine context so the shutdown
		// sequence's own records still land; Close flushes the backlog.
		go j.Run(context.Background())
		defer j.Close()
		recorder = j
	}

	metrics := obs.NewMetrics()
	riskEngine := risk.NewEngine(loaded.Risk)
	delegator := exchange.NewDelegator(&http.Client{Timeout: 15 * time.Second}, loaded.RestURL, loaded.Credentials)
	orderManager := maker.NewUsecase(loaded.Maker, riskEngine, delegator, metrics, recorder)
	stream := ingest.NewStream(ctx, loaded.WsURL, loaded.Maker.Symbol)
	queue := bus.NewQueue(loaded.QueueCapacity)

	logs.Infof("starting market maker for %s", loaded.Maker.Symbol)
	if err := engine.New(stream, orderManager, queue, metrics, loaded.HousekeepInterval).Run(ctx); err != nil {
		log.Fatalf("engine stopped with error: %v", err)
	}
}
