// Package seed loads the campus catalogue from a YAML document.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"campusbot/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Catalogue is the seed document.
type Catalogue struct {
	Schedules []models.ScheduleEntry `yaml:"schedules"`
	BusRoutes []models.BusRoute      `yaml:"bus_routes"`
	Events    []models.Event         `yaml:"events"`
	Canteens  []models.CanteenMenu   `yaml:"canteens"`
}

// Store is the write side of the campus catalogue.
type Store interface {
	ClearCatalogue(ctx context.Context) error
	AddScheduleEntry(ctx context.Context, e models.ScheduleEntry) (*models.ScheduleEntry, error)
	AddBusRoute(ctx context.Context, r models.BusRoute) (*models.BusRoute, error)
	AddEvent(ctx context.Context, e models.Event) (*models.Event, error)
	UpsertCanteenMenu(ctx context.Context, menu models.CanteenMenu) error
}

// Parse decodes a catalogue. Unknown keys are rejected.
func Parse(data []byte) (*Catalogue, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cat Catalogue
	if err := dec.Decode(&cat); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	return &cat, nil
}

// LoadFile reads and parses the catalogue at path.
func LoadFile(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Apply replaces schedules, bus routes and events with the catalogue's and
// upserts its canteens, so applying the same document twice is harmless.
func Apply(ctx context.Context, store Store, cat *Catalogue, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := store.ClearCatalogue(ctx); err != nil {
		return err
	}
	for i, e := range cat.Schedules {
		if _, err := store.AddScheduleEntry(ctx, e); err != nil {
			return fmt.Errorf("schedule %d: %w", i, err)
		}
	}
	for i, r := range cat.BusRoutes {
		if _, err := store.AddBusRoute(ctx, r); err != nil {
			return fmt.Errorf("bus route %d: %w", i, err)
		}
	}
	for i, e := range cat.Events {
		if _, err := store.AddEvent(ctx, e); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	for _, menu := range cat.Canteens {
		if err := store.UpsertCanteenMenu(ctx, menu); err != nil {
			return fmt.Errorf("canteen %q: %w", menu.CanteenName, err)
		}
	}
	logger.Info("campus catalogue seeded",
		zap.Int("schedules", len(cat.Schedules)),
		zap.Int("bus_routes", len(cat.BusRoutes)),
		zap.Int("events", len(cat.Events)),
		zap.Int("canteens", len(cat.Canteens)),
	)
	return nil
}
