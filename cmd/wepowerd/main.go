// WePower IoT Core - Device Discovery and MQTT Bridge
//
// This is the main entry point for the WePower IoT core service. It
// discovers radio adapters (dongles) on serial ports, scans them for end
// devices, and bridges the device fleet onto MQTT for Home Assistant.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wepower/iot-core/internal/bridge"
	"github.com/wepower/iot-core/internal/device"
	"github.com/wepower/iot-core/internal/dongle"
	"github.com/wepower/iot-core/internal/infrastructure/config"
	"github.com/wepower/iot-core/internal/infrastructure/database"
	"github.com/wepower/iot-core/internal/infrastructure/influxdb"
	"github.com/wepower/iot-core/internal/infrastructure/logging"
	"github.com/wepower/iot-core/internal/infrastructure/mqtt"
	"github.com/wepower/iot-core/internal/scanner"
	"github.com/wepower/iot-core/internal/transport"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting WePower IoT Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the lifecycle journal database
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	journal, err := device.NewSQLiteHistory(db.DB)
	if err != nil {
		return fmt.Errorf("initialising lifecycle journal: %w", err)
	}

	// Connect to MQTT broker. An unreachable broker starts the client in
	// buffered mode: publishes queue in the outbox and flush on connect.
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	if mqttClient.IsConnected() {
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Warn("MQTT broker unreachable, buffering until it appears",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		)
	}

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected, outbox flushed", "queued", mqttClient.OutboxLen())
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Runtime settings shared by the bridge and scan loop
	settings := config.NewSettings(cfg.Transports)

	// Device registry with lifecycle journal
	devices := device.NewRegistry(cfg.Pairing.MaxPairedDevices)
	devices.SetLogger(log)
	devices.SetHistory(journal)
	if influxClient != nil {
		devices.SetTelemetry(influxClient)
	}

	// Dongle registry
	dongles := dongle.NewRegistry(cfg.Serial)
	dongles.SetLogger(log)

	// Bridge registries onto the message bus
	br := bridge.New(bridge.Config{
		Broker:         mqttClient,
		Settings:       settings,
		Devices:        devices,
		QoS:            byte(cfg.MQTT.QoS),
		PairingTimeout: cfg.GetPairingTimeout(),
	})
	br.SetLogger(log)
	devices.SetPublisher(br)

	if err := br.Start(); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	log.Info("bridge started, status published")

	// Discover and connect adapters
	filter := transport.NewFilter(cfg.Serial.IncludePatterns, cfg.Serial.ExcludePatterns)
	infos, err := dongles.Discover(filter, cfg.Simulation.Enabled)
	if err != nil {
		return fmt.Errorf("discovering adapters: %w", err)
	}
	log.Info("adapter discovery complete", "dongles", len(infos))

	for _, info := range infos {
		if _, connErr := dongles.Connect(info.Port); connErr != nil {
			log.Error("connecting adapter", "port", info.Port, "error", connErr)
			continue
		}
		snap, snapErr := dongles.Snapshot(info.Port, 0)
		if snapErr == nil {
			br.PublishDongle(snap)
		}
	}
	defer func() {
		log.Info("disconnecting adapters")
		dongles.DisconnectAll()
	}()

	// Scan and heartbeat loops. Telemetry sinks stay nil interfaces when
	// InfluxDB is disabled.
	var scanTelemetry scanner.ScanTelemetry
	var beatTelemetry scanner.HeartbeatTelemetry
	if influxClient != nil {
		scanTelemetry = influxClient
		beatTelemetry = influxClient
	}

	orch := scanner.NewOrchestrator(scanner.OrchestratorConfig{
		Scan:       cfg.Scan,
		Simulation: cfg.Simulation,
		Settings:   settings,
		Dongles:    dongles,
		Devices:    devices,
		Publisher:  br,
		Telemetry:  scanTelemetry,
	})
	orch.SetLogger(log)
	orch.Start(ctx)
	defer func() {
		log.Info("stopping scan loop")
		orch.Stop()
	}()

	mon := scanner.NewMonitor(scanner.MonitorConfig{
		Scan:      cfg.Scan,
		Dongles:   dongles,
		Devices:   devices,
		Publisher: br,
		Telemetry: beatTelemetry,
	})
	mon.SetLogger(log)
	mon.Start(ctx)
	defer func() {
		log.Info("stopping heartbeat monitor")
		mon.Stop()
	}()

	// Verify all connections are healthy. A disconnected broker is not
	// fatal here: the client is buffering and will catch up on connect.
	if err := healthCheck(ctx, db, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		log.Warn("MQTT health check failed, operating in buffered mode", "error", err)
	}
	log.Info("health checks complete")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Heartbeat monitor
	// 2. Scan loop
	// 3. Adapters
	// 4. InfluxDB (if enabled)
	// 5. MQTT (publishes graceful offline status)
	// 6. Database

	log.Info("WePower IoT Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses WEPOWER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("WEPOWER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the hard infrastructure dependencies are healthy.
// The MQTT connection is checked separately: the client tolerates an
// absent broker by buffering.
func healthCheck(ctx context.Context, db *database.DB, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
