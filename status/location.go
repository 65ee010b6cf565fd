// Package status tracks what one device knows about its counterpart: the last
// reported position and when it was last heard from.
package status

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

const ErrNoLocation statusErr = "no location reported"

type statusErr string

func (e statusErr) Error() string { return string(e) }

type Location struct {
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	Accuracy float32   `json:"accuracy"`
	Time     time.Time `json:"time"`
}

// Text renders the location the way it is appended to caregiver messages.
func (l Location) Text() string {
	return fmt.Sprintf("Last location: %s, %s (±%sm).",
		strconv.FormatFloat(l.Lat, 'f', -1, 64),
		strconv.FormatFloat(l.Lng, 'f', -1, 64),
		strconv.FormatFloat(float64(l.Accuracy), 'f', -1, 32),
	)
}

// LocationRepository persists the last known location. Only the latest fix
// is kept.
type LocationRepository interface {
	SaveLocation(ctx context.Context, loc Location) error
	LastLocation(ctx context.Context) (Location, error)
}

// LocationCache holds the counterpart's last reported location in memory and
// writes it through to an optional repository.
type LocationCache struct {
	mu     sync.RWMutex
	last   Location
	loaded bool
	repo   LocationRepository
}

func NewLocationCache(repo LocationRepository) *LocationCache {
	return &LocationCache{repo: repo}
}

// Load primes the cache from the repository. A missing location is not an
// error.
func (c *LocationCache) Load(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}
	loc, err := c.repo.LastLocation(ctx)
	if err != nil {
		if errors.Is(err, ErrNoLocation) {
			return nil
		}
		return fmt.Errorf("load last location: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last, c.loaded = loc, true
	return nil
}

// Update replaces the cached location unless loc is older than what is
// already cached, since texts can arrive out of order.
func (c *LocationCache) Update(ctx context.Context, loc Location) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded && loc.Time.Before(c.last.Time) {
		return nil
	}
	c.last, c.loaded = loc, true
	if c.repo != nil {
		if err := c.repo.SaveLocation(ctx, loc); err != nil {
			return fmt.Errorf("save location: %w", err)
		}
	}
	return nil
}

func (c *LocationCache) Get() (Location, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.loaded
}
