package main

import (
	"context"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rescuelink/telemetry-simulator/core"
	"github.com/rescuelink/telemetry-simulator/internal/logging"
	"github.com/rescuelink/telemetry-simulator/internal/observability"
	"github.com/rescuelink/telemetry-simulator/internal/publish"
	"github.com/rescuelink/telemetry-simulator/model"
	"github.com/rescuelink/telemetry-simulator/timectrl"
)

func main() {
	scenarioPath := flag.String("scenario", "", "Path to a YAML scenario file (empty: built-in Bhopal demo run)")
	brokerURL := flag.String("broker", "", "MQTT broker URL (overrides MQTT_BROKER)")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	poll := flag.Duration("poll", core.DefaultPollInterval, "scheduler polling interval")
	seed := flag.Int64("seed", 0, "random seed (0: derive from current time)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	scenario := loadScenario(log, *scenarioPath)

	route, err := core.NewRoute(scenario.Waypoints)
	if err != nil {
		log.Error(ctx, "invalid route", logging.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info(ctx, "route loaded",
		logging.String("vehicle", scenario.VehicleID),
		logging.Int("waypoints", len(scenario.Waypoints)),
		logging.Float64("total_km", route.TotalKm()),
		logging.Float64("speed_kmh", scenario.SpeedKmh),
	)

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	start := time.Now()
	tracker, err := core.NewRouteTracker(route, scenario.SpeedKmh, start)
	if err != nil {
		log.Error(ctx, "invalid tracker configuration", logging.String("error", err.Error()))
		os.Exit(1)
	}

	cell := &core.PositionCell{}
	vitals := core.NewVitalsModel(rng)
	ecg := core.NewECGSynth(rng, scenario.ECGSampleRate, scenario.ECGBatchSize)

	mqttCfg := publish.MQTTConfigFromEnv()
	if *brokerURL != "" {
		mqttCfg.BrokerURL = *brokerURL
	}

	stats := publish.NewStats()
	pub, err := publish.NewMQTTPublisher(ctx, mqttCfg, log, connectionLogger{log: log})
	if err != nil {
		// No bus, nothing to simulate into.
		log.Error(ctx, "failed to connect to broker", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer pub.Close()

	emitter := publish.NewEmitter(pub, scenario.Topics, log, stats)

	sched := core.NewScheduler(timectrl.WallClock{}, emitter, log,
		core.WithPollInterval(*poll),
		core.WithMetricsRecorder(collector),
	)
	registerProducers(ctx, log, sched, scenario, tracker, cell, vitals, ecg, rng, collector)

	// The profile is published once, retained, before the feeds start.
	scenario.Patient.Timestamp = start.Unix()
	if err := emitter.Emit(ctx, model.ClassProfile, scenario.Patient); err != nil {
		log.Warn(ctx, "failed to publish patient profile", logging.String("error", err.Error()))
	}

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sched.Run(runCtx)
	}()

	<-runCtx.Done()
	log.Info(ctx, "shutting down simulator")
	<-done

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	log.Info(ctx, "simulation summary", logging.String("publishes", stats.String()))
}

// registerProducers wires every scheduled topic class into the scheduler at
// the cadence from the scenario's mapping table.
func registerProducers(
	ctx context.Context,
	log logging.Logger,
	sched *core.Scheduler,
	scenario *core.Scenario,
	tracker *core.RouteTracker,
	cell *core.PositionCell,
	vitals *core.VitalsModel,
	ecg *core.ECGSynth,
	rng *rand.Rand,
	collector *observability.SimCollector,
) {
	producers := []struct {
		class string
		p     core.Producer
	}{
		{model.ClassLocation, core.NewLocationProducer(tracker, cell, collector)},
		{model.ClassETA, core.NewETAProducer(tracker)},
		{model.ClassVitals, core.NewVitalsProducer(vitals, cell)},
		{model.ClassECG, core.NewECGProducer(ecg)},
		{model.ClassTraffic, core.NewTrafficProducer(rng)},
	}

	for _, reg := range producers {
		spec, ok := scenario.Topics[reg.class]
		if !ok {
			log.Warn(ctx, "topic class not mapped, skipping", logging.String("class", reg.class))
			continue
		}
		if err := sched.Register(reg.class, spec.Cadence(), reg.p); err != nil {
			log.Error(ctx, "failed to register producer",
				logging.String("class", reg.class),
				logging.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}
}

func loadScenario(log logging.Logger, path string) *core.Scenario {
	if path == "" {
		return core.DefaultScenario()
	}

	f, err := os.Open(path)
	if err != nil {
		log.Error(context.Background(), "failed to open scenario", logging.String("path", path), logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer f.Close()

	scenario, err := core.LoadScenario(f)
	if err != nil {
		log.Error(context.Background(), "failed to load scenario", logging.String("path", path), logging.String("error", err.Error()))
		os.Exit(1)
	}
	return scenario
}

func serveMetrics(addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// connectionLogger surfaces broker connection events in the log.
type connectionLogger struct {
	log logging.Logger
}

func (c connectionLogger) OnConnected() {
	c.log.Info(context.Background(), "publisher connected")
}

func (c connectionLogger) OnDisconnected(err error) {
	c.log.Warn(context.Background(), "publisher disconnected", logging.String("error", err.Error()))
}
