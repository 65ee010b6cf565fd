package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/oppamcare/oppam/log"
	"github.com/oppamcare/oppam/protocol"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	cliApp := cli.NewApp()
	cliApp.Name = "stress"
	cliApp.Usage = "Stress test the inbound SMS webhook of an oppam device"

	cliApp.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "url",
			Aliases: []string{"u"},
			Value:   "http://localhost:8080",
			Usage:   "URL of the oppam device",
		},
		&cli.IntFlag{
			Name:    "senders",
			Aliases: []string{"s"},
			Value:   100,
			Usage:   "Number of phones to simulate",
		},
		&cli.IntFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Value:   100,
			Usage:   "Specifies the interval in milliseconds per round of texts",
		},
		&cli.Float64Flag{
			Name:  "control-ratio",
			Value: 0.2,
			Usage: "Share of texts that are control messages",
		},
	}

	logger := log.NewLogger()

	cliApp.Commands = []*cli.Command{
		{
			Name:   "run",
			Usage:  "[default] runs the stress test",
			Action: run,
		},
	}

	cliApp.DefaultCommand = "run"

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		logger.Error("start stress test failed", "error", err)
		os.Exit(1)
	}
}

type inboundRequest struct {
	From  string `json:"from"`
	Body  string `json:"body"`
	Ref   string `json:"ref,omitempty"`
	Part  int    `json:"part,omitempty"`
	Total int    `json:"total,omitempty"`
}

// segmentLen is the length of a single GSM 7-bit segment in a concatenated
// text.
const segmentLen = 153

func run(c *cli.Context) error {
	f := parseFlags(c)
	ctx := c.Context
	sessionID := strings.SplitN(uuid.New().String(), "-", 2)[0]
	logger := log.NewLogger(log.WithDevelopment())

	client := resty.New().
		SetBaseURL(f.serviceURL).
		SetTimeout(5*time.Second).
		SetHeader("Content-Type", "application/json")

	getPhone := func(i int) string {
		return "+1555" + sessionID[:4] + strconv.Itoa(1000+i)
	}

	post := func(ctx context.Context, phone string, req inboundRequest) error {
		res, err := client.R().
			SetContext(ctx).
			SetBody(req).
			Post("/sms/inbound")
		if err != nil {
			return fmt.Errorf("post text from '%s': %w", phone, err)
		}
		if res.IsError() {
			return fmt.Errorf("post text from '%s': unexpected status %d", phone, res.StatusCode())
		}
		return nil
	}

	logger.Info(fmt.Sprintf("starting pool with %d workers", f.numSenders))
	pool := NewWorkerPool(f.numSenders, 5*time.Second)
	poolErrs := pool.Start(ctx)

	logger.Info(fmt.Sprintf("simulating texts from %d phones", f.numSenders))
	go func() {
		for round := 0; ; round++ {
			for i := range f.numSenders {
				if ctx.Err() != nil {
					return
				}
				phone := getPhone(i)
				body := randBody(f.controlRatio, round)
				pool.QueueJob(func(ctx context.Context) error {
					segs := split(body)
					if len(segs) == 1 {
						if err := post(ctx, phone, inboundRequest{From: phone, Body: body}); err != nil {
							return err
						}
						logger.Info("sent text", "phone", phone, "length", len(body))
						return nil
					}
					ref := uuid.NewString()
					// Reverse order to exercise reassembly.
					for part := len(segs); part >= 1; part-- {
						err := post(ctx, phone, inboundRequest{
							From:  phone,
							Body:  segs[part-1],
							Ref:   ref,
							Part:  part,
							Total: len(segs),
						})
						if err != nil {
							return err
						}
					}
					logger.Info("sent multipart text", "phone", phone, "ref", ref, "parts", len(segs))
					return nil
				})
			}
			select {
			case <-time.After(time.Duration(f.intervalMS) * time.Millisecond):
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		<-ctx.Done()
		pool.Close()
	}()

	for err := range poolErrs {
		if !errors.Is(err, context.Canceled) {
			logger.Error("worker job failed", "error", err)
		}
	}

	logger.Info("stress test finished", "completed", pool.Completed(), "failed", pool.Failed())
	return nil
}

func randBody(controlRatio float64, round int) string {
	if rand.Float64() >= controlRatio {
		words := 5 + rand.Intn(60)
		var b strings.Builder
		for i := range words {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(fillerWords[rand.Intn(len(fillerWords))])
		}
		return b.String()
	}
	var msg protocol.Message
	switch rand.Intn(3) {
	case 0:
		msg = protocol.Instant{Text: "Stress reminder " + strconv.Itoa(round)}
	case 1:
		msg = protocol.ScheduleAlarm{
			ID:   1 + rand.Intn(1000),
			Time: time.Now().Add(time.Duration(1+rand.Intn(60)) * time.Minute),
			Text: "Stress alarm " + strconv.Itoa(round),
		}
	default:
		msg = protocol.LocationUpdate{
			Lat:      8 + rand.Float64(),
			Lng:      76 + rand.Float64(),
			Accuracy: float32(5 + rand.Intn(50)),
			Time:     time.Now(),
		}
	}
	body, err := protocol.Encode(msg)
	if err != nil {
		return "stress"
	}
	return body
}

func split(body string) []string {
	runes := []rune(body)
	if len(runes) <= 160 {
		return []string{body}
	}
	var segs []string
	for len(runes) > 0 {
		n := min(segmentLen, len(runes))
		segs = append(segs, string(runes[:n]))
		runes = runes[n:]
	}
	return segs
}

var fillerWords = []string{
	"hello", "appachan", "did", "you", "eat", "lunch", "call", "me", "when",
	"free", "doctor", "visit", "tomorrow", "morning", "rain", "today", "ok",
}

type flags struct {
	serviceURL   string
	numSenders   int
	intervalMS   int64
	controlRatio float64
}

func parseFlags(c *cli.Context) flags {
	var parsed flags
	var flagErrs []string

	parsed.serviceURL = c.String("url")
	if parsed.serviceURL == "" {
		flagErrs = append(flagErrs, "url: cannot be empty")
	} else if _, err := url.ParseRequestURI(parsed.serviceURL); err != nil {
		flagErrs = append(flagErrs, "url: invalid format")
	}

	parsed.numSenders = c.Int("senders")
	if parsed.numSenders <= 0 {
		flagErrs = append(flagErrs, "senders: must be greater than zero")
	}

	parsed.intervalMS = c.Int64("interval")
	if parsed.intervalMS < 0 {
		flagErrs = append(flagErrs, "interval: must be non negative")
	}

	parsed.controlRatio = c.Float64("control-ratio")
	if parsed.controlRatio < 0 || parsed.controlRatio > 1 {
		flagErrs = append(flagErrs, "control-ratio: must be between 0 and 1")
	}

	if len(flagErrs) > 0 {
		fmt.Fprintln(os.Stderr, "Flag errors:")
		for _, ferr := range flagErrs {
			fmt.Fprintln(os.Stderr, "  "+ferr)
		}
		fmt.Fprintln(os.Stdout)
		cli.ShowAppHelpAndExit(c, 1)
	}

	return parsed
}
