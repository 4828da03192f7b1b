// Frontdesk Core - session authentication and customer records for a
// reception desk.
//
// The binary serves the HTTP API by default. The seed subcommand creates the
// initial receptionist account and, optionally, sample customer records.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/nerrad567/frontdesk-core/migrations"

	"github.com/nerrad567/frontdesk-core/internal/api"
	"github.com/nerrad567/frontdesk-core/internal/audit"
	"github.com/nerrad567/frontdesk-core/internal/auth"
	"github.com/nerrad567/frontdesk-core/internal/infrastructure/config"
	"github.com/nerrad567/frontdesk-core/internal/infrastructure/database"
	"github.com/nerrad567/frontdesk-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/frontdesk-core/internal/infrastructure/logging"
	"github.com/nerrad567/frontdesk-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/frontdesk-core/internal/records"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on Ctrl+C and SIGTERM for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the root command serves the API.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "frontdesk",
		Short:         "Frontdesk Core - reception desk authentication and records",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	var sampleData bool
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Create the receptionist account (and optionally sample records)",
		Long: `Creates the "receptionist" account if it does not exist. The password is
taken from FRONTDESK_SEED_PASSWORD; when unset a random password is generated
and printed once.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), cmd, sampleData)
		},
	}
	seed.Flags().BoolVar(&sampleData, "sample-data", false, "also create sample fields, customers and notes when the store is empty")

	root.AddCommand(seed)
	return root
}

// run is the server lifecycle, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Frontdesk Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"environment", cfg.Environment,
	)

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	// InfluxDB (optional)
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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// MQTT (optional)
	var events api.EventPublisher
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
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
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		events = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	metrics := api.NewMetrics(nil)
	components := buildAuth(cfg, db, metrics, influxClient, log)
	if components.authn.AdminEnabled() {
		log.Info("admin login enabled")
	} else {
		log.Warn("admin login disabled: no admin secret configured")
	}

	var janitor *auth.Janitor
	if cfg.Auth.JanitorSchedule != "" {
		janitor, err = auth.NewJanitor(components.sessions, cfg.Auth.JanitorSchedule, func(deleted int64) {
			metrics.SessionsSwept(deleted)
			if influxClient != nil {
				influxClient.WriteSessionSweep(deleted, time.Now())
			}
		})
		if err != nil {
			return fmt.Errorf("creating session janitor: %w", err)
		}
		janitor.SetLogger(log.With("component", "janitor"))
		janitor.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			janitor.Stop(stopCtx)
		}()
		log.Info("session janitor started", "schedule", cfg.Auth.JanitorSchedule)
	}

	server, err := api.New(api.Deps{
		Config:        cfg,
		Logger:        log,
		DB:            db,
		Sessions:      components.sessions,
		Authenticator: components.authn,
		Directory:     components.directory,
		Gate:          components.gate,
		Records:       records.NewSQLiteRepository(db.DB),
		AuditRepo:     audit.NewSQLiteRepository(db.DB),
		Metrics:       metrics,
		Events:        events,
		Version:       version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API server, janitor, MQTT,
	// InfluxDB, database.
	return nil
}

// authComponents groups the auth services shared by the API and the janitor.
type authComponents struct {
	sessions  *auth.SessionManager
	authn     *auth.Authenticator
	directory *auth.Directory
	gate      *auth.Gate
}

// buildAuth wires the auth package to the store and routes its hooks to
// Prometheus and, when enabled, InfluxDB.
func buildAuth(cfg *config.Config, db *database.DB, metrics *api.Metrics, influx *influxdb.Client, log *logging.Logger) authComponents {
	users := auth.NewUserRepository(db.DB)
	authLog := log.With("component", "auth")

	sessions := auth.NewSessionManager(auth.NewSessionRepository(db.DB), auth.SessionManagerConfig{
		TTL:       cfg.Auth.SessionTTL,
		OnCreated: metrics.SessionCreated,
		OnExpired: metrics.SessionExpired,
	})
	sessions.SetLogger(authLog)

	authn := auth.NewAuthenticator(users, auth.AuthenticatorConfig{
		AdminSecret: cfg.Auth.AdminPassword,
		OnAttempt: func(kind, outcome string) {
			metrics.AuthAttempt(kind, outcome)
			if influx != nil {
				influx.WriteAuthEvent(kind, outcome, time.Now())
			}
		},
	})
	authn.SetLogger(authLog)

	directory := auth.NewDirectory(users)
	directory.SetLogger(authLog)

	return authComponents{
		sessions:  sessions,
		authn:     authn,
		directory: directory,
		gate:      auth.NewGate(sessions, auth.GateConfig{OnDenied: metrics.AuthorizationDenied}),
	}
}

// runSeed creates the receptionist account and, with sampleData, the sample
// records. The generated password is written to the command's output once.
func runSeed(ctx context.Context, cmd *cobra.Command, sampleData bool) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logging.New(cfg.Logging, version)

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // best-effort close on exit

	password, err := auth.SeedReceptionist(ctx, auth.NewUserRepository(db.DB), os.Getenv("FRONTDESK_SEED_PASSWORD"), log.Logger)
	if err != nil {
		return fmt.Errorf("seeding receptionist: %w", err)
	}
	if password != "" && os.Getenv("FRONTDESK_SEED_PASSWORD") == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %q with password: %s\n", auth.SeedUsername, password)
	}

	if sampleData {
		created, err := records.SeedSampleData(ctx, records.NewSQLiteRepository(db.DB))
		if err != nil {
			return fmt.Errorf("seeding sample data: %w", err)
		}
		log.Info("sample data", "created", created)
	}
	return nil
}

// openDatabase opens the store and applies pending migrations.
func openDatabase(ctx context.Context, cfg *config.Config, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.Info("database connected", "path", cfg.Database.Path)

	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")
	return db, nil
}

// getConfigPath returns the configuration file path.
// Uses FRONTDESK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FRONTDESK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// MQTT and InfluxDB are skipped when nil (disabled).
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
