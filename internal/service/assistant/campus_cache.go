package assistant

import (
	"context"
	"time"

	"campusbot/internal/models"
	"campusbot/internal/service/chatbot"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedCampus is a read-through cache in front of the campus catalogue.
// Results are shared between callers and must be treated as read-only.
type CachedCampus struct {
	next  chatbot.Campus
	cache *expirable.LRU[string, any]
}

// NewCachedCampus caches up to size results for ttl each.
func NewCachedCampus(next chatbot.Campus, size int, ttl time.Duration) *CachedCampus {
	return &CachedCampus{
		next:  next,
		cache: expirable.NewLRU[string, any](size, nil, ttl),
	}
}

// Invalidate drops every cached result, e.g. after the catalogue was edited.
func (c *CachedCampus) Invalidate() {
	c.cache.Purge()
}

func cached[T any](c *CachedCampus, key string, load func() (T, error)) (T, error) {
	if v, ok := c.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.cache.Add(key, v)
	return v, nil
}

func (c *CachedCampus) SchedulesForDay(ctx context.Context, degree models.Degree, day time.Weekday) ([]models.ScheduleEntry, error) {
	return cached(c, "schedules:"+string(degree)+":"+day.String(), func() ([]models.ScheduleEntry, error) {
		return c.next.SchedulesForDay(ctx, degree, day)
	})
}

func (c *CachedCampus) BusRoutes(ctx context.Context) ([]models.BusRoute, error) {
	return cached(c, "bus_routes", func() ([]models.BusRoute, error) {
		return c.next.BusRoutes(ctx)
	})
}

func (c *CachedCampus) Events(ctx context.Context) ([]models.Event, error) {
	return cached(c, "events", func() ([]models.Event, error) {
		return c.next.Events(ctx)
	})
}

func (c *CachedCampus) CanteenNames(ctx context.Context) ([]string, error) {
	return cached(c, "canteens", func() ([]string, error) {
		return c.next.CanteenNames(ctx)
	})
}

func (c *CachedCampus) CanteenMenu(ctx context.Context, name string) (*models.CanteenMenu, error) {
	return cached(c, "menu:"+name, func() (*models.CanteenMenu, error) {
		return c.next.CanteenMenu(ctx, name)
	})
}

func (c *CachedCampus) Modules(ctx context.Context, degree models.Degree) ([]string, error) {
	return cached(c, "modules:"+string(degree), func() ([]string, error) {
		return c.next.Modules(ctx, degree)
	})
}
