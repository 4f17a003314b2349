package models

import "errors"

// ErrNotFound reports a campus record that does not exist.
var ErrNotFound = errors.New("not found")

// ScheduleEntry is one weekly class slot. Day is an English weekday name and
// times are zero-padded "15:04" strings.
type ScheduleEntry struct {
	ID         int64  `json:"id" yaml:"-"`
	ClassName  string `json:"class_name" yaml:"class_name"`
	Day        string `json:"day" yaml:"day"`
	StartTime  string `json:"start_time" yaml:"start_time"`
	EndTime    string `json:"end_time" yaml:"end_time"`
	Location   string `json:"location" yaml:"location"`
	Instructor string `json:"instructor" yaml:"instructor"`
	Degree     Degree `json:"degree" yaml:"degree"`
}

type BusRoute struct {
	ID       int64    `json:"id" yaml:"-"`
	Route    string   `json:"route" yaml:"route"`
	Schedule []string `json:"schedule" yaml:"schedule"`
	Duration string   `json:"duration" yaml:"duration"`
}

// Event dates are "2006-01-02" strings so they sort lexically.
type Event struct {
	ID       int64  `json:"id" yaml:"-"`
	Title    string `json:"title" yaml:"title"`
	Date     string `json:"date" yaml:"date"`
	Time     string `json:"time" yaml:"time"`
	Location string `json:"location" yaml:"location"`
}

type Meal string

const (
	MealBreakfast Meal = "breakfast"
	MealLunch     Meal = "lunch"
	MealDinner    Meal = "dinner"
)

// Meals lists the meal kinds in serving order.
var Meals = []Meal{MealBreakfast, MealLunch, MealDinner}

type MealMenu struct {
	Breakfast []string `json:"breakfast" yaml:"breakfast"`
	Lunch     []string `json:"lunch" yaml:"lunch"`
	Dinner    []string `json:"dinner" yaml:"dinner"`
}

// Dishes returns the dish list for a meal.
func (m MealMenu) Dishes(meal Meal) []string {
	switch meal {
	case MealBreakfast:
		return m.Breakfast
	case MealLunch:
		return m.Lunch
	case MealDinner:
		return m.Dinner
	}
	return nil
}

type CanteenMenu struct {
	CanteenName string   `json:"canteen_name" yaml:"name"`
	Meals       MealMenu `json:"meals" yaml:"meals"`
}
