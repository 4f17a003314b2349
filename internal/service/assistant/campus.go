package assistant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusbot/internal/models"
)

// SchedulesForDay returns the degree's classes on the given weekday ordered by start time.
func (s *Service) SchedulesForDay(ctx context.Context, degree models.Degree, day time.Weekday) ([]models.ScheduleEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, class_name, day, start_time, end_time, location, instructor, degree
		 FROM schedules WHERE degree = ? AND day = ? ORDER BY start_time ASC, id ASC`,
		degree, day.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var entries []models.ScheduleEntry
	for rows.Next() {
		var e models.ScheduleEntry
		if err := rows.Scan(&e.ID, &e.ClassName, &e.Day, &e.StartTime, &e.EndTime, &e.Location, &e.Instructor, &e.Degree); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Modules returns the distinct class names taught to a degree.
func (s *Service) Modules(ctx context.Context, degree models.Degree) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT class_name FROM schedules WHERE degree = ? ORDER BY class_name ASC`, degree,
	)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	var modules []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		modules = append(modules, name)
	}
	return modules, rows.Err()
}

// BusRoutes returns every bus route.
func (s *Service) BusRoutes(ctx context.Context) ([]models.BusRoute, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, route, schedule, duration FROM bus_routes ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list bus routes: %w", err)
	}
	defer rows.Close()

	var routes []models.BusRoute
	for rows.Next() {
		var (
			r        models.BusRoute
			schedule string
		)
		if err := rows.Scan(&r.ID, &r.Route, &schedule, &r.Duration); err != nil {
			return nil, fmt.Errorf("scan bus route: %w", err)
		}
		if schedule != "" {
			r.Schedule = strings.Split(schedule, ",")
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

// Events returns every event ordered by date.
func (s *Service) Events(ctx context.Context) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, date, time, location FROM events ORDER BY date ASC, time ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Date, &e.Time, &e.Location); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CanteenNames returns the canteens in the order they were added.
func (s *Service) CanteenNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM canteens ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list canteens: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan canteen: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CanteenMenu returns the menu of the named canteen or models.ErrNotFound.
func (s *Service) CanteenMenu(ctx context.Context, name string) (*models.CanteenMenu, error) {
	var id int64
	menu := &models.CanteenMenu{}
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM canteens WHERE name = ?`, name).Scan(&id, &menu.CanteenName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get canteen: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT meal, dish FROM canteen_dishes WHERE canteen_id = ? ORDER BY meal ASC, position ASC`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("list dishes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var meal, dish string
		if err := rows.Scan(&meal, &dish); err != nil {
			return nil, fmt.Errorf("scan dish: %w", err)
		}
		switch models.Meal(meal) {
		case models.MealBreakfast:
			menu.Meals.Breakfast = append(menu.Meals.Breakfast, dish)
		case models.MealLunch:
			menu.Meals.Lunch = append(menu.Meals.Lunch, dish)
		case models.MealDinner:
			menu.Meals.Dinner = append(menu.Meals.Dinner, dish)
		}
	}
	return menu, rows.Err()
}

// AddScheduleEntry stores one class slot. Day names and clock times are normalised.
func (s *Service) AddScheduleEntry(ctx context.Context, e models.ScheduleEntry) (*models.ScheduleEntry, error) {
	if strings.TrimSpace(e.ClassName) == "" {
		return nil, errors.New("class name is required")
	}
	day, ok := parseWeekday(e.Day)
	if !ok {
		return nil, fmt.Errorf("unknown day %q", e.Day)
	}
	degree, ok := models.ParseDegree(string(e.Degree))
	if !ok || degree == "" {
		return nil, fmt.Errorf("unknown degree %q", e.Degree)
	}
	start, err := parseClock(e.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(e.EndTime)
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, fmt.Errorf("class %q ends before it starts", e.ClassName)
	}
	e.Day, e.Degree, e.StartTime, e.EndTime = day.String(), degree, start, end

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO schedules (class_name, day, start_time, end_time, location, instructor, degree) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ClassName, e.Day, e.StartTime, e.EndTime, e.Location, e.Instructor, e.Degree,
	)
	if err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("schedule id: %w", err)
	}
	return &e, nil
}

// AddBusRoute stores one route.
func (s *Service) AddBusRoute(ctx context.Context, r models.BusRoute) (*models.BusRoute, error) {
	if strings.TrimSpace(r.Route) == "" {
		return nil, errors.New("route is required")
	}
	times := make([]string, 0, len(r.Schedule))
	for _, t := range r.Schedule {
		clock, err := parseClock(t)
		if err != nil {
			return nil, err
		}
		times = append(times, clock)
	}
	r.Schedule = times
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bus_routes (route, schedule, duration) VALUES (?, ?, ?)`,
		r.Route, strings.Join(r.Schedule, ","), r.Duration,
	)
	if err != nil {
		return nil, fmt.Errorf("insert bus route: %w", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("bus route id: %w", err)
	}
	return &r, nil
}

// AddEvent stores one event. Dates must be YYYY-MM-DD.
func (s *Service) AddEvent(ctx context.Context, e models.Event) (*models.Event, error) {
	if strings.TrimSpace(e.Title) == "" {
		return nil, errors.New("title is required")
	}
	if _, err := time.Parse(time.DateOnly, e.Date); err != nil {
		return nil, fmt.Errorf("invalid event date %q: %w", e.Date, err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (title, date, time, location) VALUES (?, ?, ?, ?)`,
		e.Title, e.Date, e.Time, e.Location,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("event id: %w", err)
	}
	return &e, nil
}

// UpsertCanteenMenu creates the canteen if needed and replaces its dishes.
func (s *Service) UpsertCanteenMenu(ctx context.Context, menu models.CanteenMenu) (err error) {
	name := strings.TrimSpace(menu.CanteenName)
	if name == "" {
		return errors.New("canteen name is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM canteens WHERE name = ?`, name).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, insErr := tx.ExecContext(ctx, `INSERT INTO canteens (name) VALUES (?)`, name)
		if insErr != nil {
			return fmt.Errorf("insert canteen: %w", insErr)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("canteen id: %w", err)
		}
	case err != nil:
		return fmt.Errorf("find canteen: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM canteen_dishes WHERE canteen_id = ?`, id); err != nil {
		return fmt.Errorf("clear dishes: %w", err)
	}
	for _, meal := range models.Meals {
		for pos, dish := range menu.Meals.Dishes(meal) {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO canteen_dishes (canteen_id, meal, dish, position) VALUES (?, ?, ?, ?)`,
				id, meal, dish, pos,
			); err != nil {
				return fmt.Errorf("insert dish: %w", err)
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit canteen menu: %w", err)
	}
	return nil
}

// DeleteCanteen removes a canteen and its dishes.
func (s *Service) DeleteCanteen(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM canteen_dishes WHERE canteen_id IN (SELECT id FROM canteens WHERE name = ?)`, name,
	); err != nil {
		return fmt.Errorf("delete dishes: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM canteens WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete canteen: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func parseWeekday(raw string) (time.Weekday, bool) {
	raw = strings.TrimSpace(raw)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(raw, d.String()) {
			return d, true
		}
	}
	return 0, false
}

func parseClock(raw string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid time %q: %w", raw, err)
	}
	return t.Format("15:04"), nil
}

// ClearCatalogue removes schedules, bus routes and events. Canteens are kept.
func (s *Service) ClearCatalogue(ctx context.Context) error {
	for _, table := range []string{"schedules", "bus_routes", "events"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
