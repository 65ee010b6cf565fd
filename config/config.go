package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/oppamcare/oppam/log"
)

const (
	RoleElder     = "elder"
	RoleCaregiver = "caregiver"

	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"

	TransportGateway = "gateway"
	TransportMQTT    = "mqtt"
)

type Config struct {
	Logger           Logger     `yaml:"logger" envPrefix:"LOGGER_"`
	Port             int        `yaml:"port" env:"PORT"`            // default: 8080
	SQLiteDir        string     `yaml:"sqliteDir" env:"SQLITE_DIR"` // default: ./data/
	Role             string     `yaml:"role" env:"ROLE"`            // default: elder
	Counterpart      string     `yaml:"counterpart" env:"COUNTERPART"`
	Profile          Profile    `yaml:"profile" envPrefix:"PROFILE_"`
	Store            Store      `yaml:"store" envPrefix:"STORE_"`
	SMS              SMS        `yaml:"sms" envPrefix:"SMS_"`
	Alarms           Alarms     `yaml:"alarms" envPrefix:"ALARMS_"`
	Ring             Ring       `yaml:"ring" envPrefix:"RING_"`
	Voice            Voice      `yaml:"voice" envPrefix:"VOICE_"`
	Location         Location   `yaml:"location" envPrefix:"LOCATION_"`
	InboundRateLimit *RateLimit `yaml:"inboundRateLimit" envPrefix:"INBOUND_RATE_LIMIT_"`
}

func (c Config) Validate() []error {
	var errs []error
	if _, ok := log.ParseLevel(c.Logger.Level); !ok {
		errs = append(errs, errors.New("logger.level: must be one of [debug, info, warn, error]"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, errors.New("port: must be between 1 and 65535"))
	}
	if !slices.Contains([]string{RoleElder, RoleCaregiver}, c.Role) {
		errs = append(errs, errors.New("role: must be one of [elder, caregiver]"))
	}

	switch c.Store.Backend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr: must not be empty"))
		}
	default:
		errs = append(errs, errors.New("store.backend: must be one of [sqlite, redis, memory]"))
	}

	switch c.SMS.Transport {
	case TransportGateway:
		if c.SMS.Gateway.URL == "" {
			errs = append(errs, errors.New("sms.gateway.url: must not be empty"))
		}
	case TransportMQTT:
		if c.SMS.MQTT.Broker == "" {
			errs = append(errs, errors.New("sms.mqtt.broker: must not be empty"))
		}
	default:
		errs = append(errs, errors.New("sms.transport: must be one of [gateway, mqtt]"))
	}
	if c.SMS.Workers < 1 {
		errs = append(errs, errors.New("sms.workers: must be greater than 0"))
	}
	if c.SMS.QueueSize < 1 {
		errs = append(errs, errors.New("sms.queueSize: must be greater than 0"))
	}
	if c.SMS.MultipartTTL <= 0 {
		errs = append(errs, errors.New("sms.multipartTTL: must be greater than 0"))
	}
	errs = append(errs, c.SMS.RateLimit.validate("sms.rateLimit")...)
	errs = append(errs, c.InboundRateLimit.validate("inboundRateLimit")...)

	if c.Alarms.SweepInterval <= 0 {
		errs = append(errs, errors.New("alarms.sweepInterval: must be greater than 0"))
	}
	if c.Alarms.InexactWindow <= 0 {
		errs = append(errs, errors.New("alarms.inexactWindow: must be greater than 0"))
	}
	if c.Alarms.MaxMisses < 1 {
		errs = append(errs, errors.New("alarms.maxMisses: must be greater than 0"))
	}

	for name, d := range map[string]time.Duration{
		"ring.toneDuration":    c.Ring.ToneDuration,
		"ring.reRingAfter":     c.Ring.ReRingAfter,
		"ring.noResponseAfter": c.Ring.NoResponseAfter,
		"ring.promptDelay":     c.Ring.PromptDelay,
		"ring.wakeHoldMax":     c.Ring.WakeHoldMax,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be greater than 0", name))
		}
	}
	if c.Ring.ReRingAfter >= c.Ring.NoResponseAfter {
		errs = append(errs, errors.New("ring.reRingAfter: must be less than ring.noResponseAfter"))
	}
	return errs
}

type Logger struct {
	Level      string `yaml:"level" env:"LEVEL"`           // default: info
	Structured bool   `yaml:"structured" env:"STRUCTURED"` // default: true
}

// Profile names the people on both ends of the pairing.
type Profile struct {
	ElderName     string `yaml:"elderName" env:"ELDER_NAME"`         // default: Appachan
	CaregiverName string `yaml:"caregiverName" env:"CAREGIVER_NAME"` // default: Caregiver
	Phone         string `yaml:"phone" env:"PHONE"`
}

type Store struct {
	Backend string `yaml:"backend" env:"BACKEND"` // default: sqlite
	Redis   Redis  `yaml:"redis" envPrefix:"REDIS_"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

type SMS struct {
	Transport    string        `yaml:"transport" env:"TRANSPORT"` // default: gateway
	Gateway      Gateway       `yaml:"gateway" envPrefix:"GATEWAY_"`
	MQTT         MQTT          `yaml:"mqtt" envPrefix:"MQTT_"`
	RateLimit    *RateLimit    `yaml:"rateLimit" envPrefix:"RATE_LIMIT_"`
	Workers      int           `yaml:"workers" env:"WORKERS"`            // default: 2
	QueueSize    int           `yaml:"queueSize" env:"QUEUE_SIZE"`       // default: 64
	MultipartTTL time.Duration `yaml:"multipartTTL" env:"MULTIPART_TTL"` // default: 10m
}

type Gateway struct {
	URL     string        `yaml:"url" env:"URL"`
	Token   string        `yaml:"token" env:"TOKEN"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"` // default: 10s
}

type MQTT struct {
	Broker        string `yaml:"broker" env:"BROKER"`
	ClientID      string `yaml:"clientID" env:"CLIENT_ID"` // default: oppam
	Username      string `yaml:"username" env:"USERNAME"`
	Password      string `yaml:"password" env:"PASSWORD"`
	InboundTopic  string `yaml:"inboundTopic" env:"INBOUND_TOPIC"`   // default: oppam/sms/inbound
	OutboundTopic string `yaml:"outboundTopic" env:"OUTBOUND_TOPIC"` // default: oppam/sms/outbound
}

type Alarms struct {
	SweepInterval time.Duration `yaml:"sweepInterval" env:"SWEEP_INTERVAL"` // default: 1m
	MaxMisses     int           `yaml:"maxMisses" env:"MAX_MISSES"`         // default: 3
	InexactWindow time.Duration `yaml:"inexactWindow" env:"INEXACT_WINDOW"` // default: 15m
	AlarmClock    bool          `yaml:"alarmClock" env:"ALARM_CLOCK"`       // default: true
	Exact         bool          `yaml:"exact" env:"EXACT"`                  // default: true
}

type Ring struct {
	ToneDuration    time.Duration `yaml:"toneDuration" env:"TONE_DURATION"`        // default: 5s
	ReRingAfter     time.Duration `yaml:"reRingAfter" env:"RE_RING_AFTER"`         // default: 10s
	NoResponseAfter time.Duration `yaml:"noResponseAfter" env:"NO_RESPONSE_AFTER"` // default: 20s
	PromptDelay     time.Duration `yaml:"promptDelay" env:"PROMPT_DELAY"`          // default: 10s
	WakeHoldMax     time.Duration `yaml:"wakeHoldMax" env:"WAKE_HOLD_MAX"`         // default: 5m
	Salutation      string        `yaml:"salutation" env:"SALUTATION"`             // default: Appacha,
	Prompt          string        `yaml:"prompt" env:"PROMPT"`
}

// Voice selects the speech backend. Without a command, speech is only logged.
type Voice struct {
	Command string   `yaml:"command" env:"COMMAND"`
	Args    []string `yaml:"args" env:"ARGS"`
}

type Location struct {
	WebhookURL  string `yaml:"webhookURL" env:"WEBHOOK_URL"`
	ShareViaSMS bool   `yaml:"shareViaSMS" env:"SHARE_VIA_SMS"` // default: true
}

type RateLimit struct {
	Tokens  int `yaml:"tokens" env:"TOKENS"`
	Seconds int `yaml:"seconds" env:"SECONDS"`
}

func (r *RateLimit) validate(path string) []error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Tokens <= 0 {
		errs = append(errs, fmt.Errorf("%s.tokens: must be greater than 0", path))
	}
	if r.Seconds <= 0 {
		errs = append(errs, fmt.Errorf("%s.seconds: must be greater than 0", path))
	}
	return errs
}

func Default() Config {
	return Config{
		Port:      8080,
		SQLiteDir: "./data/",
		Role:      RoleElder,
		Logger: Logger{
			Level:      "info",
			Structured: true,
		},
		Profile: Profile{
			ElderName:     "Appachan",
			CaregiverName: "Caregiver",
		},
		Store: Store{Backend: BackendSQLite},
		SMS: SMS{
			Transport: TransportGateway,
			Gateway:   Gateway{Timeout: 10 * time.Second},
			MQTT: MQTT{
				ClientID:      "oppam",
				InboundTopic:  "oppam/sms/inbound",
				OutboundTopic: "oppam/sms/outbound",
			},
			Workers:      2,
			QueueSize:    64,
			MultipartTTL: 10 * time.Minute,
		},
		Alarms: Alarms{
			SweepInterval: time.Minute,
			MaxMisses:     3,
			InexactWindow: 15 * time.Minute,
			AlarmClock:    true,
			Exact:         true,
		},
		Ring: Ring{
			ToneDuration:    5 * time.Second,
			ReRingAfter:     10 * time.Second,
			NoResponseAfter: 20 * time.Second,
			PromptDelay:     10 * time.Second,
			WakeHoldMax:     5 * time.Minute,
			Salutation:      "Appacha,",
			Prompt:          "Have you done it? Please answer yes or no.",
		},
		Location: Location{ShareViaSMS: true},
	}
}

// Load applies the config file, then environment variables, on top of
// Default. Validation failures are returned joined; the caller decides how to
// report them.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		file, err := os.Open(configFile)
		if err != nil {
			return nil, fmt.Errorf("open config file at path '%s': %w", configFile, err)
		}
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err = decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config file at path '%s': %w", configFile, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config environment variables: %w", err)
	}

	if verrs := cfg.Validate(); len(verrs) > 0 {
		return nil, &ValidationError{Errs: verrs}
	}

	return &cfg, nil
}

type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s", errors.Join(e.Errs...))
}

func (e *ValidationError) Unwrap() []error {
	return e.Errs
}
