// Command signal-relay runs the Signal domain relay (spec §4.4):
// checksum and strict-size validation, arbitrage-signal topic fan-out.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dawsh2/torq/internal/config"
	"github.com/dawsh2/torq/pkg/metrics"
	"github.com/dawsh2/torq/pkg/relay"
	"github.com/dawsh2/torq/pkg/tlv"
)

const defaultConfigPath = "/etc/torq/signal-relay.toml"
const defaultMetricsAddr = ":9102"
const maxTopicsPerConsumer = 16

func main() {
	configPath := os.Getenv("TORQ_RELAY_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		log.Fatalf("failed to read relay config %s: %v", configPath, err)
	}

	cfg, err := config.Load(raw)
	if err != nil {
		log.Fatalf("invalid relay config: %v", err)
	}
	if tlv.RelayDomain(cfg.Relay.Domain) != tlv.DomainSignal {
		log.Fatalf("signal-relay requires relay.domain=2, got %d", cfg.Relay.Domain)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ln, err := relay.Listen(cfg.Transport.Mode, cfg.Transport.Path, joinHostPort(cfg.Transport.Address, cfg.Transport.Port))
	if err != nil {
		log.Fatalf("failed to listen on %s transport: %v", cfg.Transport.Mode, err)
	}

	topics := topicConfigFromSection(cfg.Topics, tlv.TypeArbitrageSignal)
	if err := relay.ValidateTopicConfig(topics, tlv.ArbitrageSignalTLVSize); err != nil {
		log.Fatalf("invalid topic config: %v", err)
	}

	registry := relay.NewRegistry(maxTopicsPerConsumer)
	reg := metrics.New()
	relayMetrics := relay.NewMetrics(reg)
	r := relay.New(tlv.DomainSignal, topics, registry, logger, relayMetrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	maxFrame := uint32(cfg.Validation.MaxMessageSize)
	if maxFrame == 0 {
		maxFrame = uint32(tlv.MaxMessageSize)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- relay.Serve(ctx, ln, r, maxFrame, logger) }()

	go runCleanupLoop(ctx, r, registry, relayMetrics, cfg.CleanupInterval, logger)

	metricsAddr := os.Getenv("TORQ_METRICS_ADDR")
	if metricsAddr == "" {
		metricsAddr = defaultMetricsAddr
	}
	go serveMetrics(metricsAddr, reg, logger)

	logger.Info("signal relay listening",
		zap.String("mode", cfg.Transport.Mode), zap.String("path", cfg.Transport.Path))

	if err := <-serveErr; err != nil {
		log.Fatalf("relay serve loop exited: %v", err)
	}
}

func runCleanupLoop(ctx context.Context, r *relay.Relay, registry *relay.Registry, m *relay.Metrics, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := registry.CleanupDead()
			if len(evicted) > 0 {
				logger.Info("relay: reaped dead consumers", zap.Strings("consumer_ids", evicted))
			}
			m.Observe(r)
		}
	}
}

func serveMetrics(addr string, reg *metrics.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg.Prometheus(), promhttp.HandlerOpts{}))
	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server exited", zap.Error(err))
	}
}

func topicConfigFromSection(s config.TopicsSection, defaultType uint8) relay.TopicConfig {
	cfg := relay.TopicConfig{
		FixedTopic:           s.Default,
		DefaultTLVType:       defaultType,
		CustomFieldOffset:    s.CustomFieldOffset,
		MaxTopicsPerConsumer: maxTopicsPerConsumer,
	}
	switch s.ExtractionStrategy {
	case config.StrategyInstrumentVenue:
		cfg.Strategy = relay.ByInstrumentVenue
	case config.StrategyCustomField:
		cfg.Strategy = relay.ByCustomField
	case config.StrategyFixed:
		cfg.Strategy = relay.ByFixed
	default:
		cfg.Strategy = relay.BySourceType
	}
	return cfg
}

func joinHostPort(host string, port int) string {
	if host == "" && port == 0 {
		return ""
	}
	return host + ":" + strconv.Itoa(port)
}
