package assistant

import (
	"context"
	"testing"
	"time"

	"campusbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedCampusReadsThrough(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db)
	ctx := context.Background()
	cache := NewCachedCampus(svc, 64, time.Minute)

	require.NoError(t, svc.UpsertCanteenMenu(ctx, models.CanteenMenu{
		CanteenName: "Main Canteen",
		Meals:       models.MealMenu{Lunch: []string{"Rice and curry"}},
	}))

	names, err := cache.CanteenNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Main Canteen"}, names)

	require.NoError(t, svc.UpsertCanteenMenu(ctx, models.CanteenMenu{CanteenName: "Juice Bar"}))

	names, err = cache.CanteenNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Main Canteen"}, names, "cached result is served until invalidated")

	cache.Invalidate()
	names, err = cache.CanteenNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Main Canteen", "Juice Bar"}, names)
}

func TestCachedCampusDoesNotCacheErrors(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db)
	ctx := context.Background()
	cache := NewCachedCampus(svc, 64, time.Minute)

	_, err := cache.CanteenMenu(ctx, "Late Canteen")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, svc.UpsertCanteenMenu(ctx, models.CanteenMenu{
		CanteenName: "Late Canteen",
		Meals:       models.MealMenu{Dinner: []string{"Kottu"}},
	}))
	menu, err := cache.CanteenMenu(ctx, "Late Canteen")
	require.NoError(t, err)
	assert.Equal(t, []string{"Kottu"}, menu.Meals.Dinner)
}

func TestCachedCampusKeysByDegreeAndDay(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db)
	ctx := context.Background()
	cache := NewCachedCampus(svc, 64, time.Minute)

	_, err := svc.AddScheduleEntry(ctx, models.ScheduleEntry{ClassName: "Networks", Day: "Monday", StartTime: "08:00", EndTime: "10:00", Degree: models.DegreeIT})
	require.NoError(t, err)
	_, err = svc.AddScheduleEntry(ctx, models.ScheduleEntry{ClassName: "Vision", Day: "Monday", StartTime: "08:00", EndTime: "10:00", Degree: models.DegreeAI})
	require.NoError(t, err)

	it, err := cache.SchedulesForDay(ctx, models.DegreeIT, time.Monday)
	require.NoError(t, err)
	ai, err := cache.SchedulesForDay(ctx, models.DegreeAI, time.Monday)
	require.NoError(t, err)
	tue, err := cache.SchedulesForDay(ctx, models.DegreeIT, time.Tuesday)
	require.NoError(t, err)

	require.Len(t, it, 1)
	require.Len(t, ai, 1)
	assert.Equal(t, "Networks", it[0].ClassName)
	assert.Equal(t, "Vision", ai[0].ClassName)
	assert.Empty(t, tue)

	mods, err := cache.Modules(ctx, models.DegreeAI)
	require.NoError(t, err)
	assert.Equal(t, []string{"Vision"}, mods)
}
