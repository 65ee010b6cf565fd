package main

import (
	"context"
	"fmt"

	"github.com/oppamcare/oppam/alarm"
	"github.com/oppamcare/oppam/config"
	"github.com/oppamcare/oppam/http"
	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/redisstore"
	"github.com/oppamcare/oppam/sms"
	"github.com/oppamcare/oppam/sms/gateway"
	"github.com/oppamcare/oppam/sms/mqttbridge"
	"github.com/oppamcare/oppam/sqlite"
	"github.com/oppamcare/oppam/sqlite/migrations"
	"github.com/oppamcare/oppam/status"
)

// backends holds the persistence chosen by store.backend. Location and
// presence are only persisted with sqlite; the other backends keep them in
// memory.
type backends struct {
	alarms    alarm.Repository
	locations status.LocationRepository
	presence  status.PresenceRepository
	inbox     sms.Inbox
	checks    map[string]http.HealthCheck
	closers   []func() error
	logger    log.Logger
}

func (b *backends) close() {
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil {
			b.logger.Error("failed to close backend", "error", err)
		}
	}
}

func openBackends(ctx context.Context, cfg *config.Config, logger log.Logger) (*backends, error) {
	b := &backends{
		checks: make(map[string]http.HealthCheck),
		logger: logger,
	}

	switch cfg.Store.Backend {
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, sqlite.WithDir(cfg.SQLiteDir))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("opened sqlite database connection")
		b.closers = append(b.closers, db.Close)

		if err = sqlite.Migrate(db, migrations.FS()); err != nil {
			b.close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		logger.Info("migrated sqlite database")

		statusRepo := sqlite.NewStatusRepository(db)
		b.alarms = sqlite.NewAlarmRepository(db)
		b.locations = statusRepo
		b.presence = statusRepo
		b.inbox = sqlite.NewInboxRepository(db)
		b.checks["sqlite"] = db.PingContext

	case config.BackendRedis:
		client := redisstore.NewClient(redisstore.Config{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		b.closers = append(b.closers, client.Close)
		repo := redisstore.NewAlarmRepository(client)
		if err := repo.Ping(ctx); err != nil {
			b.close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("connected to redis", "addr", cfg.Store.Redis.Addr)
		b.alarms = repo
		b.inbox = sms.NewMemoryInbox()
		b.checks["redis"] = repo.Ping

	default:
		logger.Warn("using in-memory store, alarms will not survive a restart")
		b.alarms = alarm.NewMemoryRepository()
		b.inbox = sms.NewMemoryInbox()
	}

	return b, nil
}

// newTransport builds the outbound channel. The MQTT bridge is returned
// separately since it also carries inbound segments and has to be connected
// once the receiver exists.
func newTransport(cfg *config.Config, logger log.Logger) (sms.Transport, *mqttbridge.Bridge, error) {
	switch cfg.SMS.Transport {
	case config.TransportGateway:
		return gateway.NewClient(cfg.SMS.Gateway.URL, cfg.SMS.Gateway.Token,
			gateway.WithTimeout(cfg.SMS.Gateway.Timeout)), nil, nil
	case config.TransportMQTT:
		bridge := mqttbridge.New(mqttbridge.Config{
			Broker:        cfg.SMS.MQTT.Broker,
			ClientID:      cfg.SMS.MQTT.ClientID,
			Username:      cfg.SMS.MQTT.Username,
			Password:      cfg.SMS.MQTT.Password,
			InboundTopic:  cfg.SMS.MQTT.InboundTopic,
			OutboundTopic: cfg.SMS.MQTT.OutboundTopic,
		}, nil, logger)
		return bridge, bridge, nil
	default:
		return nil, nil, fmt.Errorf("unknown sms transport %q", cfg.SMS.Transport)
	}
}
