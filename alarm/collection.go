package alarm

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// collectionItem is one element of the persisted JSON collection written by
// earlier versions of the app. Optional fields are pointers so a missing key
// can be told apart from an explicit zero.
type collectionItem struct {
	ID              int     `json:"id"`
	Message         string  `json:"message"`
	TimeInMillis    int64   `json:"timeInMillis"`
	RepeatDaily     bool    `json:"repeatDaily"`
	Status          *string `json:"status,omitempty"`
	DismissedAt     *int64  `json:"dismissedAt,omitempty"`
	IntervalSeconds *int    `json:"intervalSeconds,omitempty"`
	MaxMisses       *int    `json:"maxMisses,omitempty"`
	MissedCount     *int    `json:"missedCount,omitempty"`
}

// DecodeCollection reads a JSON array of records. Keys missing from an
// element take their defaults: intervalSeconds 300, maxMisses 3,
// missedCount 0 and status "scheduled".
func DecodeCollection(r io.Reader) ([]Record, error) {
	var items []collectionItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode alarm collection: %w", err)
	}

	recs := make([]Record, 0, len(items))
	for i, item := range items {
		if !ValidID(item.ID) {
			return nil, fmt.Errorf("decode alarm collection: element %d: invalid id %d", i, item.ID)
		}
		rec := Record{
			ID:              item.ID,
			Message:         item.Message,
			Time:            time.UnixMilli(item.TimeInMillis).UTC(),
			RepeatDaily:     item.RepeatDaily,
			Status:          StatusScheduled,
			IntervalSeconds: DefaultIntervalSeconds,
			MaxMisses:       DefaultMaxMisses,
		}
		if item.Status != nil {
			status := Status(*item.Status)
			if !status.Valid() {
				return nil, fmt.Errorf("decode alarm collection: element %d: unknown status %q", i, *item.Status)
			}
			rec.Status = status
		}
		if item.DismissedAt != nil && *item.DismissedAt > 0 {
			rec.DismissedAt = time.UnixMilli(*item.DismissedAt).UTC()
		}
		if item.IntervalSeconds != nil {
			rec.IntervalSeconds = *item.IntervalSeconds
		}
		if item.MaxMisses != nil {
			rec.MaxMisses = *item.MaxMisses
		}
		if item.MissedCount != nil {
			rec.MissedCount = *item.MissedCount
		}
		recs = append(recs, rec)
	}

	return recs, nil
}

// EncodeCollection writes records in the same JSON array layout that
// DecodeCollection reads.
func EncodeCollection(w io.Writer, recs []Record) error {
	items := make([]collectionItem, len(recs))
	for i, rec := range recs {
		rec = rec.withDefaults()
		var dismissedAt int64
		if !rec.DismissedAt.IsZero() {
			dismissedAt = rec.DismissedAt.UnixMilli()
		}
		items[i] = collectionItem{
			ID:              rec.ID,
			Message:         rec.Message,
			TimeInMillis:    rec.Time.UnixMilli(),
			RepeatDaily:     rec.RepeatDaily,
			Status:          ptr(string(rec.Status)),
			DismissedAt:     &dismissedAt,
			IntervalSeconds: &rec.IntervalSeconds,
			MaxMisses:       &rec.MaxMisses,
			MissedCount:     &rec.MissedCount,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode alarm collection: %w", err)
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
