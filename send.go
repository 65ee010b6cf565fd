package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/urfave/cli/v2"

	"github.com/oppamcare/oppam/alarm"
	"github.com/oppamcare/oppam/config"
	"github.com/oppamcare/oppam/control"
	"github.com/oppamcare/oppam/location"
	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/protocol"
	"github.com/oppamcare/oppam/sms"
	"github.com/oppamcare/oppam/status"
)

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "sends one control text to the counterpart device and exits",
		Subcommands: []*cli.Command{
			{
				Name:      "instant",
				Usage:     "rings the elder device now with the given reminder",
				ArgsUsage: "<message>",
				Action:    sendInstant,
			},
			{
				Name:  "alarm",
				Usage: "schedules an alarm on the elder device",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "id",
						Usage: "alarm id to replace, a new id is generated when unset",
					},
					&cli.StringFlag{
						Name:     "message",
						Aliases:  []string{"m"},
						Usage:    "reminder text",
						Required: true,
					},
					&cli.Int64Flag{
						Name:  "time",
						Usage: "trigger time in unix milliseconds",
					},
					&cli.StringFlag{
						Name:  "at",
						Usage: "next local HH:MM to ring at, instead of --time",
					},
				},
				Action: sendAlarm,
			},
			{
				Name:  "location",
				Usage: "shares a position with the caregiver",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "lat", Required: true},
					&cli.Float64Flag{Name: "lng", Required: true},
					&cli.Float64Flag{Name: "accuracy", Usage: "accuracy radius in meters"},
				},
				Action: sendLocation,
			},
		},
	}
}

// outbound is a synchronous sender over the configured transport.
type outbound struct {
	cfg      *config.Config
	logger   log.Logger
	sender   *sms.Sender
	backends *backends
	cleanup  []func()
}

func openOutbound(c *cli.Context, withStore bool) (*outbound, error) {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	o := &outbound{cfg: cfg, logger: logger}

	transport, bridge, err := newTransport(cfg, logger)
	if err != nil {
		return nil, err
	}
	if bridge != nil {
		bridge.SetReceiver(discardSegments{})
		if err = bridge.Connect(c.Context); err != nil {
			return nil, err
		}
		o.cleanup = append(o.cleanup, bridge.Close)
	}
	o.sender = sms.NewSender(transport, logger)

	if withStore {
		b, err := openBackends(c.Context, cfg, logger)
		if err != nil {
			o.close()
			return nil, err
		}
		o.backends = b
		o.cleanup = append(o.cleanup, b.close)
	}
	return o, nil
}

func (o *outbound) close() {
	for i := len(o.cleanup) - 1; i >= 0; i-- {
		o.cleanup[i]()
	}
}

func sendInstant(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("send instant: message is required")
	}
	o, err := openOutbound(c, false)
	if err != nil {
		return err
	}
	defer o.close()

	commander := control.NewCommander(o.sender, nil, o.cfg.Counterpart, clockwork.NewRealClock(), o.logger)
	if err = commander.SendInstant(c.Context, c.Args().First()); err != nil {
		return err
	}
	o.logger.Info("instant reminder sent", "phone", o.cfg.Counterpart)
	return nil
}

func sendAlarm(c *cli.Context) error {
	if c.IsSet("time") == c.IsSet("at") {
		return errors.New("send alarm: exactly one of --time or --at is required")
	}
	o, err := openOutbound(c, true)
	if err != nil {
		return err
	}
	defer o.close()

	clock := clockwork.NewRealClock()
	store := alarm.NewStore(o.backends.alarms, alarm.WithClock(clock))
	commander := control.NewCommander(o.sender, store, o.cfg.Counterpart, clock, o.logger)

	var sent protocol.ScheduleAlarm
	if c.IsSet("at") {
		hour, minute, err := control.ParseClock(c.String("at"))
		if err != nil {
			return err
		}
		sent, err = commander.SendDaily(c.Context, c.Int("id"), c.String("message"), hour, minute)
		if err != nil {
			return err
		}
	} else {
		sent, err = commander.SendSchedule(c.Context, c.Int("id"), c.String("message"), time.UnixMilli(c.Int64("time")))
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(c.App.Writer, "alarm %d scheduled for %s\n", sent.ID, sent.Time.Local().Format(time.RFC1123))
	return nil
}

func sendLocation(c *cli.Context) error {
	o, err := openOutbound(c, false)
	if err != nil {
		return err
	}
	defer o.close()

	transmitter := location.NewSMSTransmitter(o.sender, o.cfg.Counterpart, o.logger)
	return transmitter.Transmit(c.Context, status.Location{
		Lat:      c.Float64("lat"),
		Lng:      c.Float64("lng"),
		Accuracy: float32(c.Float64("accuracy")),
		Time:     time.Now(),
	})
}

type discardSegments struct{}

func (discardSegments) ReceiveSegment(context.Context, sms.Segment) sms.Verdict {
	return sms.VerdictSuppressed
}
