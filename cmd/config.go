package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	RegistryPostgres   = "postgres"
	RegistrySimulation = "simulation"

	NotificationStorePostgres = "postgres"
	NotificationStoreMongo    = "mongo"
)

// Config is read from the environment by LoadConfig.
type Config struct {
	HTTPPort string

	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSslMode    string
	StoreTimeout time.Duration

	JWTSecret string

	RobotRegistry       string
	SimulateMovement    bool
	AutoAssignOnApprove bool
	FleetSpeedKmh       float64
	MinBattery          int

	OTPDigits   int
	OTPTTL      time.Duration
	OTPTrigger  string
	OTPHashCost int

	NotificationStore      string
	MongoURI               string
	MongoDatabase          string
	KafkaBrokers           []string
	KafkaNotificationTopic string
	WebsocketEnabled       bool

	OutboxWorkers        int
	OutboxBuffer         int
	PublishTimeout       time.Duration
	RepublishMaxAttempts int

	AssignmentSchedule string
	MovementSchedule   string
	RepublishSchedule  string

	OTLPEndpoint string
	ServiceName  string
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return LoadConfigFrom(os.LookupEnv)
}

// LoadConfigFrom builds the config from lookup. Every invalid key is reported.
func LoadConfigFrom(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}

	cfg := Config{
		HTTPPort: r.str("HTTP_PORT", "8080"),

		DBHost:       r.str("DB_HOST", "localhost"),
		DBPort:       r.str("DB_PORT", "5432"),
		DBUser:       r.str("DB_USER", "postgres"),
		DBPassword:   r.str("DB_PASSWORD", ""),
		DBName:       r.str("DB_NAME", "robodelivery"),
		DBSslMode:    r.str("DB_SSLMODE", "disable"),
		StoreTimeout: r.duration("STORE_TIMEOUT", 3*time.Second),

		JWTSecret: r.str("JWT_SECRET", ""),

		RobotRegistry:       r.oneOf("ROBOT_REGISTRY", RegistryPostgres, RegistryPostgres, RegistrySimulation),
		SimulateMovement:    r.boolean("SIMULATE_MOVEMENT", false),
		AutoAssignOnApprove: r.boolean("AUTO_ASSIGN_ON_APPROVE", true),
		FleetSpeedKmh:       r.float("FLEET_SPEED_KMH", 6),
		MinBattery:          r.integer("MIN_BATTERY", 20),

		OTPDigits:   r.integer("OTP_DIGITS", 6),
		OTPTTL:      r.duration("OTP_TTL", 30*time.Minute),
		OTPTrigger:  r.oneOf("OTP_TRIGGER", "robot_delivering", "robot_delivering", "robot_picking_up"),
		OTPHashCost: r.integer("OTP_HASH_COST", 10),

		NotificationStore:      r.oneOf("NOTIFICATION_STORE", NotificationStorePostgres, NotificationStorePostgres, NotificationStoreMongo),
		MongoURI:               r.str("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:          r.str("MONGO_DATABASE", "robodelivery"),
		KafkaBrokers:           r.list("KAFKA_BROKERS"),
		KafkaNotificationTopic: r.str("KAFKA_NOTIFICATION_TOPIC", "robodelivery.notifications"),
		WebsocketEnabled:       r.boolean("WEBSOCKET_ENABLED", true),

		OutboxWorkers:        r.integer("OUTBOX_WORKERS", 2),
		OutboxBuffer:         r.integer("OUTBOX_BUFFER", 1024),
		PublishTimeout:       r.duration("PUBLISH_TIMEOUT", 2*time.Second),
		RepublishMaxAttempts: r.integer("REPUBLISH_MAX_ATTEMPTS", 3),

		AssignmentSchedule: r.str("ASSIGNMENT_SCHEDULE", "*/5 * * * * *"),
		MovementSchedule:   r.str("MOVEMENT_SCHEDULE", "* * * * * *"),
		RepublishSchedule:  r.str("REPUBLISH_SCHEDULE", "*/30 * * * * *"),

		OTLPEndpoint: r.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  r.str("SERVICE_NAME", "robodelivery"),
	}

	if cfg.JWTSecret == "" {
		r.fail("JWT_SECRET", errors.New("is required"))
	}
	r.positive("STORE_TIMEOUT", cfg.StoreTimeout > 0)
	r.positive("FLEET_SPEED_KMH", cfg.FleetSpeedKmh > 0)
	r.positive("OTP_TTL", cfg.OTPTTL > 0)
	r.positive("OUTBOX_WORKERS", cfg.OutboxWorkers > 0)
	r.positive("OUTBOX_BUFFER", cfg.OutboxBuffer > 0)
	r.positive("PUBLISH_TIMEOUT", cfg.PublishTimeout > 0)
	r.positive("REPUBLISH_MAX_ATTEMPTS", cfg.RepublishMaxAttempts > 0)
	if cfg.MinBattery < 0 || cfg.MinBattery > 100 {
		r.fail("MIN_BATTERY", fmt.Errorf("%d is outside [0, 100]", cfg.MinBattery))
	}

	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DatabaseURL is the postgres URL understood by lib/pq and golang-migrate.
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.DBSslMode}}.Encode(),
	}
	return u.String()
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) fail(key string, err error) {
	r.errs = append(r.errs, fmt.Errorf("config %s: %w", key, err))
}

func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *reader) str(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *reader) oneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(r.str(key, def))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	r.fail(key, fmt.Errorf("%q is not one of %s", v, strings.Join(allowed, ", ")))
	return def
}

func (r *reader) list(key string) []string {
	v, ok := r.raw(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return f
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return d
}

func (r *reader) positive(key string, ok bool) {
	if !ok {
		r.fail(key, errors.New("must be positive"))
	}
}
