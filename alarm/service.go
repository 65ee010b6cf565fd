package alarm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oppamcare/oppam/log"
)

const (
	minIntervalSeconds, maxIntervalSeconds = 60, 86400
	minMaxMisses, maxMaxMisses             = 1, 100

	defaultDebugDelaySeconds = 60
	defaultDebugMessage      = "മരുന്ന് കഴിക്കണം"
)

// Service is the local management surface over the store and the engine.
type Service struct {
	store     *Store
	engine    *Engine
	maxMisses int
	logger    log.Logger
}

type ServiceOption func(s *Service)

// WithMaxMisses sets the limit given to new alarms that do not carry their
// own.
func WithMaxMisses(n int) ServiceOption {
	return func(s *Service) {
		s.maxMisses = n
	}
}

func NewService(store *Store, engine *Engine, logger log.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		engine:    engine,
		maxMisses: DefaultMaxMisses,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateAlarm(ctx context.Context, req CreateAlarmRequest) (Record, error) {
	if err := validateCreateAlarmReq(req); err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:              req.ID,
		Message:         req.Message,
		Time:            req.Time.UTC(),
		RepeatDaily:     req.RepeatDaily,
		IntervalSeconds: req.IntervalSeconds,
		MaxMisses:       req.MaxMisses,
		Status:          StatusScheduled,
	}
	if rec.MaxMisses == 0 {
		rec.MaxMisses = s.maxMisses
	}

	var err error
	if rec.ID == 0 {
		if rec, err = s.store.Create(ctx, rec); err != nil {
			return Record{}, err
		}
		err = s.engine.Arm(ctx, rec)
	} else {
		rec = rec.withDefaults()
		err = s.engine.ScheduleAlarm(ctx, rec)
	}
	if err != nil {
		return Record{}, err
	}

	s.logger.Info("alarm created", "alarm_id", rec.ID, "time", rec.Time.Format(time.RFC3339))
	return rec, nil
}

func (s *Service) ListAlarms(ctx context.Context, req ListAlarmsRequest) (ListAlarmsResponse, error) {
	if err := validateListAlarmsReq(req); err != nil {
		return ListAlarmsResponse{}, err
	}
	var (
		recs []Record
		err  error
	)
	if req.Status != "" {
		recs, err = s.store.GetByStatus(ctx, Status(req.Status))
	} else {
		recs, err = s.store.GetAll(ctx)
	}
	if err != nil {
		return ListAlarmsResponse{}, err
	}
	return ListAlarmsResponse{Alarms: nonNil(recs)}, nil
}

func (s *Service) ListUpcoming(ctx context.Context) (ListAlarmsResponse, error) {
	recs, err := s.store.GetUpcoming(ctx)
	if err != nil {
		return ListAlarmsResponse{}, err
	}
	return ListAlarmsResponse{Alarms: nonNil(recs)}, nil
}

func (s *Service) GetAlarm(ctx context.Context, req AlarmIDRequest) (Record, error) {
	if err := validateAlarmIDReq(req); err != nil {
		return Record{}, err
	}
	return s.store.Get(ctx, req.ID)
}

// DeleteAlarm disarms and removes the record. It reports ErrNotFound for an
// unknown id so the REST layer can answer 404.
func (s *Service) DeleteAlarm(ctx context.Context, req AlarmIDRequest) error {
	if err := validateAlarmIDReq(req); err != nil {
		return err
	}
	if _, err := s.store.Get(ctx, req.ID); err != nil {
		return err
	}
	if err := s.engine.Cancel(ctx, req.ID); err != nil {
		return err
	}
	s.logger.Info("alarm deleted", "alarm_id", req.ID)
	return nil
}

// DebugAlarm schedules a test alarm a few seconds from now.
func (s *Service) DebugAlarm(ctx context.Context, req DebugAlarmRequest) (Record, error) {
	if err := validateDebugAlarmReq(req); err != nil {
		return Record{}, err
	}
	delay := defaultDebugDelaySeconds
	if req.DelaySeconds != nil {
		delay = *req.DelaySeconds
	}
	message := req.Message
	if isBlank(message) {
		message = defaultDebugMessage
	}
	return s.CreateAlarm(ctx, CreateAlarmRequest{
		ID:      req.ID,
		Message: message,
		Time:    s.store.Now().Add(time.Duration(delay) * time.Second),
	})
}

// Export writes every record in the legacy collection format.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	recs, err := s.store.GetAll(ctx)
	if err != nil {
		return err
	}
	return EncodeCollection(w, recs)
}

// Import loads a legacy collection. Every record is saved; the ones still
// scheduled in the future are armed. It returns how many records were saved.
func (s *Service) Import(ctx context.Context, r io.Reader) (int, error) {
	recs, err := DecodeCollection(r)
	if err != nil {
		return 0, err
	}
	now := s.store.Now()
	var errs []error
	saved := 0
	for _, rec := range recs {
		if err = s.store.Save(ctx, rec); err != nil {
			errs = append(errs, err)
			continue
		}
		saved++
		if rec.Status == StatusScheduled && rec.Time.After(now) {
			if err = s.engine.Arm(ctx, rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	s.logger.Info("alarm collection imported", "count", saved)
	if err = errors.Join(errs...); err != nil {
		return saved, fmt.Errorf("import alarms: %w", err)
	}
	return saved, nil
}

func nonNil(recs []Record) []Record {
	if recs == nil {
		return []Record{}
	}
	return recs
}
