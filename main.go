package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/oppamcare/oppam/alarm"
	"github.com/oppamcare/oppam/config"
	"github.com/oppamcare/oppam/control"
	"github.com/oppamcare/oppam/device"
	"github.com/oppamcare/oppam/http"
	"github.com/oppamcare/oppam/location"
	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/metrics"
	"github.com/oppamcare/oppam/ring"
	"github.com/oppamcare/oppam/rlimit"
	"github.com/oppamcare/oppam/schedule"
	"github.com/oppamcare/oppam/sms"
	"github.com/oppamcare/oppam/sms/gateway"
	"github.com/oppamcare/oppam/status"
	"github.com/oppamcare/oppam/voice"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	cliApp := cli.NewApp()
	cliApp.Name = "oppam"
	cliApp.Usage = "Remind an elder to take medicine and escalate missed reminders to a caregiver over SMS"

	cliApp.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config-file",
			Aliases: []string{"c"},
			Value:   "",
			Usage:   "path to yaml config file (required if not using environment variables)",
		},
	}

	cliApp.Commands = []*cli.Command{
		{
			Name:   "run",
			Usage:  "[default] runs the device",
			Action: run,
		},
		sendCommand(),
		{
			Name:      "import",
			Usage:     "imports an exported alarm collection into the store",
			ArgsUsage: "<file>",
			Action:    importAlarms,
		},
	}

	cliApp.DefaultCommand = "run"

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, e := range verr.Errs {
				fmt.Fprintln(os.Stderr, "config error:", e)
			}
		}
		log.NewLogger().Error("failed to run oppam", "error", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, log.Logger, error) {
	cfg, err := config.Load(c.String("config-file")) // falls back to env var if config file is empty
	if err != nil {
		return nil, nil, err
	}
	var loggerOpts []log.LoggerOption
	if level, ok := log.ParseLevel(cfg.Logger.Level); ok {
		loggerOpts = append(loggerOpts, log.WithLevel(level))
	}
	if !cfg.Logger.Structured {
		loggerOpts = append(loggerOpts, log.WithDevelopment())
	}
	return cfg, log.NewLogger(loggerOpts...), nil
}

func run(c *cli.Context) error {
	ctx := c.Context

	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger = logger.With("role", cfg.Role)
	clock := clockwork.NewRealClock()

	backends, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.close()

	m := metrics.New()

	store := alarm.NewStore(backends.alarms, alarm.WithClock(clock))
	locations := status.NewLocationCache(backends.locations)
	if err = locations.Load(ctx); err != nil {
		return err
	}
	presence := status.NewPresence(backends.presence, clock)

	sched := schedule.NewDefault(
		schedule.StaticPermissions{AlarmClock: cfg.Alarms.AlarmClock, Exact: cfg.Alarms.Exact},
		schedule.NewLogNotice(logger),
		cfg.Alarms.InexactWindow,
		nil,
		logger,
		schedule.WithClock(clock),
		schedule.WithMetrics(m),
	)
	defer sched.Close()

	transport, bridge, err := newTransport(cfg, logger)
	if err != nil {
		return err
	}

	senderOpts := []sms.SenderOption{
		sms.WithWorkers(cfg.SMS.Workers, cfg.SMS.QueueSize, cfg.SMS.Gateway.Timeout),
		sms.WithMetrics(m),
	}
	if rl := cfg.SMS.RateLimit; rl != nil {
		limiter := rlimit.NewRateLimiter(rateLimit(rl), rl.Tokens, 5*time.Minute, time.Minute, rlimit.WithClock(clock))
		defer limiter.Stop()
		senderOpts = append(senderOpts, sms.WithRateLimiter(limiter))
		logger.Info("outbound sms rate limiter enabled")
	}
	sender := sms.NewSender(transport, logger, senderOpts...)
	sender.Start(ctx)
	defer sender.Close()

	notifier := control.NewCaregiverNotifier(sender, cfg.Counterpart, cfg.Profile.ElderName, locations)
	engine := alarm.NewEngine(store, sched, notifier, logger, m)
	sched.SetTrigger(engine.Fire)

	var speech voice.Service = voice.NewLogService(clock, logger)
	if cfg.Voice.Command != "" {
		speech = voice.NewCommandService(cfg.Voice.Command, cfg.Voice.Args, logger)
	}
	if err = speech.Open(ctx); err != nil {
		return fmt.Errorf("open voice: %w", err)
	}
	defer speech.Close()

	console := device.NewConsole(logger)
	manager := ring.NewManager(ring.Devices{
		Tone:     console,
		Vibrator: console,
		Wake:     device.NewWakeLock(clock, logger),
		Screen:   console,
		Voice:    speech,
	}, engine, logger,
		ring.WithClock(clock),
		ring.WithTiming(ring.Timing{
			ToneDuration:    cfg.Ring.ToneDuration,
			ReRingAfter:     cfg.Ring.ReRingAfter,
			NoResponseAfter: cfg.Ring.NoResponseAfter,
			PromptDelay:     cfg.Ring.PromptDelay,
			WakeHoldMax:     cfg.Ring.WakeHoldMax,
		}),
		ring.WithPhrases(cfg.Ring.Salutation, cfg.Ring.Prompt),
	)
	defer manager.Close()
	engine.SetRinger(manager)

	dispatcher := control.NewDispatcher(manager, engine, locations, presence, logger, control.WithMaxMisses(cfg.Alarms.MaxMisses))
	reassembler := sms.NewReassembler(cfg.SMS.MultipartTTL, clock)
	reassembler.StartGC(ctx, time.Minute)
	receiver := sms.NewReceiver(dispatcher, backends.inbox, reassembler, logger, m)

	if bridge != nil {
		bridge.SetReceiver(receiver)
		if err = bridge.Connect(ctx); err != nil {
			return err
		}
		defer bridge.Close()
	}

	m.RegisterGauge("oppam_schedule_pending", "Alarms currently armed with the scheduler", func() float64 {
		return float64(len(sched.Pending()))
	})
	m.RegisterGauge("oppam_ring_active", "Activations currently ringing", func() float64 {
		return float64(len(manager.Active()))
	})
	m.RegisterGauge("oppam_sms_segments_pending", "Multipart messages waiting for more segments", func() float64 {
		return float64(reassembler.Pending())
	})

	sweeper := alarm.NewSweeper(store, cfg.Alarms.SweepInterval, clock, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	recovered, err := engine.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recover alarms: %w", err)
	}
	logger.Info("recovered scheduled alarms", "count", recovered)

	var transmitters []location.Transmitter
	if cfg.Location.ShareViaSMS {
		transmitters = append(transmitters, location.NewSMSTransmitter(sender, cfg.Counterpart, logger))
	}
	if cfg.Location.WebhookURL != "" {
		transmitters = append(transmitters, location.NewWebhookTransmitter(cfg.Location.WebhookURL, identity(cfg), logger))
	}

	middleware := []echo.MiddlewareFunc{
		http.NewEchoErrorMiddleware(
			http.ErrorStatus{Target: alarm.ErrNotFound, Code: 404},
			http.ErrorStatus{Target: ring.ErrActivationNotFound, Code: 404},
		),
		http.NewEchoLogMiddleware(logger),
	}

	inboundMiddleware := middleware
	if rl := cfg.InboundRateLimit; rl != nil {
		limiter := rlimit.NewRateLimiter(rateLimit(rl), rl.Tokens, 5*time.Minute, time.Minute, rlimit.WithClock(clock))
		defer limiter.Stop()
		inboundMiddleware = append(inboundMiddleware[:len(middleware):len(middleware)],
			http.NewEchoRateLimiterMiddleware(limiter, gateway.EchoRequestSenderGetter))
		logger.Info("inbound sms rate limiter enabled")
	}

	srv := http.NewServer(":"+strconv.Itoa(cfg.Port), logger)
	srv.RegisterEcho(alarm.NewEchoHandler(alarm.NewService(store, engine, logger, alarm.WithMaxMisses(cfg.Alarms.MaxMisses))), middleware...)
	srv.RegisterEcho(ring.NewEchoHandler(manager), middleware...)
	srv.RegisterEcho(schedule.NewEchoHandler(sched), middleware...)
	srv.RegisterEcho(sms.NewEchoHandler(backends.inbox), middleware...)
	srv.RegisterEcho(gateway.NewEchoHandler(receiver), inboundMiddleware...)
	srv.RegisterEcho(location.NewEchoHandler(location.NewComposite(logger, transmitters...), locations, clock), middleware...)
	var commander *control.Commander
	if cfg.Role == config.RoleCaregiver {
		commander = control.NewCommander(sender, store, cfg.Counterpart, clock, logger)
	}
	srv.RegisterEcho(control.NewEchoHandler(commander, presence, cfg.Counterpart), middleware...)
	srv.RegisterMetrics(m.Handler())
	for name, check := range backends.checks {
		srv.AddHealthCheck(name, check)
	}

	errs := make(chan error)

	go func() {
		defer close(errs)
		if err := srv.Serve(); err != nil {
			errs <- fmt.Errorf("start server: %w", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)

	defer func() {
		if err := srv.Stop(context.WithoutCancel(ctx)); err != nil {
			logger.Error("failed to stop server", "error", err)
			return
		}
		logger.Info("server stopped")
	}()

	select {
	case err = <-errs:
		return err
	case <-ctx.Done():
		return nil
	}
}

func importAlarms(c *cli.Context) error {
	ctx := c.Context
	if c.NArg() != 1 {
		return errors.New("import: expected exactly one file argument")
	}
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	backends, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.close()

	file, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("open alarm collection: %w", err)
	}
	defer file.Close()

	// Timers armed here die with the process; run re-arms them on startup.
	clock := clockwork.NewRealClock()
	store := alarm.NewStore(backends.alarms, alarm.WithClock(clock))
	sched := schedule.NewDefault(schedule.StaticPermissions{}, schedule.NewLogNotice(logger),
		cfg.Alarms.InexactWindow, nil, logger, schedule.WithClock(clock))
	defer sched.Close()
	engine := alarm.NewEngine(store, sched, discardNotifier{}, logger, nil)
	svc := alarm.NewService(store, engine, logger, alarm.WithMaxMisses(cfg.Alarms.MaxMisses))

	n, err := svc.Import(ctx, file)
	if err != nil {
		return err
	}
	logger.Info("imported alarms", "count", n)
	return nil
}

func rateLimit(rl *config.RateLimit) rate.Limit {
	return rate.Every(time.Duration(rl.Seconds) * time.Second / time.Duration(rl.Tokens))
}

func identity(cfg *config.Config) location.Identity {
	id := location.Identity{
		ElderName:     cfg.Profile.ElderName,
		CaregiverName: cfg.Profile.CaregiverName,
	}
	if cfg.Role == config.RoleCaregiver {
		id.CaregiverPhone, id.ElderPhone = cfg.Profile.Phone, cfg.Counterpart
	} else {
		id.ElderPhone, id.CaregiverPhone = cfg.Profile.Phone, cfg.Counterpart
	}
	return id
}

type discardNotifier struct{}

func (discardNotifier) Confirmed(context.Context, string, time.Time)    {}
func (discardNotifier) NotCompleted(context.Context, string, time.Time) {}
func (discardNotifier) Escalated(context.Context, string, int, int)     {}
