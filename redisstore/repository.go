// Package redisstore keeps alarm records in a Redis hash, one JSON encoded
// field per record id.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/oppamcare/oppam/alarm"
)

const (
	defaultKeyPrefix = "oppam"
	maxTxRetries     = 10
)

var _ alarm.Repository = (*AlarmRepository)(nil)

type Config struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

type Option func(r *AlarmRepository)

// WithKeyPrefix namespaces the hash key, so two devices can share a server.
func WithKeyPrefix(prefix string) Option {
	return func(r *AlarmRepository) {
		r.key = prefix + ":alarms"
	}
}

// AlarmRepository implements read-modify-write operations as optimistic
// WATCH/MULTI transactions on the collection hash.
type AlarmRepository struct {
	client *redis.Client
	key    string
}

func NewAlarmRepository(client *redis.Client, opts ...Option) *AlarmRepository {
	r := &AlarmRepository{
		client: client,
		key:    defaultKeyPrefix + ":alarms",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *AlarmRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *AlarmRepository) UpsertAlarm(ctx context.Context, rec alarm.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode alarm %d: %w", rec.ID, err)
	}
	return r.client.HSet(ctx, r.key, field(rec.ID), b).Err()
}

func (r *AlarmRepository) GetAlarm(ctx context.Context, id int) (alarm.Record, error) {
	b, err := r.client.HGet(ctx, r.key, field(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return alarm.Record{}, alarm.ErrNotFound
		}
		return alarm.Record{}, err
	}
	return decode(b)
}

func (r *AlarmRepository) ListAlarms(ctx context.Context) ([]alarm.Record, error) {
	return r.list(ctx, func(alarm.Record) bool { return true })
}

func (r *AlarmRepository) ListAlarmsByStatus(ctx context.Context, status alarm.Status) ([]alarm.Record, error) {
	return r.list(ctx, func(rec alarm.Record) bool { return rec.Status == status })
}

func (r *AlarmRepository) ListUpcomingAlarms(ctx context.Context, now time.Time) ([]alarm.Record, error) {
	recs, err := r.list(ctx, func(rec alarm.Record) bool {
		return rec.Status == alarm.StatusScheduled && rec.Time.After(now)
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(recs, func(a, b alarm.Record) int {
		return a.Time.Compare(b.Time)
	})
	return recs, nil
}

func (r *AlarmRepository) DeleteAlarm(ctx context.Context, id int) error {
	return r.client.HDel(ctx, r.key, field(id)).Err()
}

func (r *AlarmRepository) MaxAlarmID(ctx context.Context) (int, error) {
	keys, err := r.client.HKeys(ctx, r.key).Result()
	if err != nil {
		return 0, err
	}
	maxID := 0
	for _, k := range keys {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		maxID = max(maxID, id)
	}
	return maxID, nil
}

func (r *AlarmRepository) UpdateAlarmStatus(ctx context.Context, id int, status alarm.Status, at time.Time) error {
	_, err := r.update(ctx, id, func(rec *alarm.Record) {
		rec.Status = status
		rec.DismissedAt = at
	})
	return err
}

func (r *AlarmRepository) IncrementMissedCount(ctx context.Context, id int) (int, error) {
	rec, err := r.update(ctx, id, func(rec *alarm.Record) {
		rec.MissedCount++
	})
	if err != nil {
		return 0, err
	}
	return rec.MissedCount, nil
}

func (r *AlarmRepository) MarkMissedAlarms(ctx context.Context, now time.Time) (int, error) {
	var marked int
	txf := func(tx *redis.Tx) error {
		marked = 0
		all, err := tx.HGetAll(ctx, r.key).Result()
		if err != nil {
			return err
		}
		updates := make(map[string]any)
		for k, v := range all {
			rec, err := decode([]byte(v))
			if err != nil {
				return err
			}
			if rec.Status != alarm.StatusScheduled || !rec.Time.Before(now) {
				continue
			}
			rec.Status = alarm.StatusMissed
			b, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			updates[k] = b
		}
		if len(updates) == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.key, updates)
			return nil
		})
		if err == nil {
			marked = len(updates)
		}
		return err
	}
	if err := r.watch(ctx, txf); err != nil {
		return 0, err
	}
	return marked, nil
}

// update applies fn to one record inside a WATCH transaction and returns the
// stored result.
func (r *AlarmRepository) update(ctx context.Context, id int, fn func(rec *alarm.Record)) (alarm.Record, error) {
	var out alarm.Record
	txf := func(tx *redis.Tx) error {
		b, err := tx.HGet(ctx, r.key, field(id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return alarm.ErrNotFound
			}
			return err
		}
		rec, err := decode(b)
		if err != nil {
			return err
		}
		fn(&rec)
		nb, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.key, field(id), nb)
			return nil
		})
		if err == nil {
			out = rec
		}
		return err
	}
	if err := r.watch(ctx, txf); err != nil {
		return alarm.Record{}, err
	}
	return out, nil
}

func (r *AlarmRepository) watch(ctx context.Context, txf func(tx *redis.Tx) error) error {
	for range maxTxRetries {
		err := r.client.Watch(ctx, txf, r.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("alarm transaction on %s: %w", r.key, redis.TxFailedErr)
}

func (r *AlarmRepository) list(ctx context.Context, keep func(alarm.Record) bool) ([]alarm.Record, error) {
	all, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	recs := make([]alarm.Record, 0, len(all))
	for _, v := range all {
		rec, err := decode([]byte(v))
		if err != nil {
			return nil, err
		}
		if keep(rec) {
			recs = append(recs, rec)
		}
	}
	slices.SortFunc(recs, func(a, b alarm.Record) int {
		return a.ID - b.ID
	})
	return recs, nil
}

func field(id int) string {
	return strconv.Itoa(id)
}

func decode(b []byte) (alarm.Record, error) {
	var rec alarm.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return alarm.Record{}, fmt.Errorf("decode alarm: %w", err)
	}
	return rec, nil
}
