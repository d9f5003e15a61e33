package testutil

import (
	"context"

	"garminwrapped/internal/cache"
	"garminwrapped/internal/garmin"
	"garminwrapped/internal/wrapped"
)

// MockClient is a mock implementation of the garmin.Client interface for
// testing. Unset methods succeed with no data.
type MockClient struct {
	ActivitiesFunc      func(ctx context.Context, year int) ([]garmin.Activity, error)
	SleepFunc           func(ctx context.Context, year int) ([]garmin.SleepSummary, error)
	StepsFunc           func(ctx context.Context, year int) ([]garmin.DailySteps, error)
	HeartRateFunc       func(ctx context.Context, year int) ([]garmin.DailyHeartRate, error)
	VO2MaxFunc          func(ctx context.Context, year int) ([]garmin.VO2MaxSample, error)
	TrainingLoadFunc    func(ctx context.Context, year int) ([]garmin.TrainingLoadDay, error)
	BodyBatteryFunc     func(ctx context.Context, year int) ([]garmin.BodyBatteryDay, error)
	StressFunc          func(ctx context.Context, year int) ([]garmin.StressDay, error)
	PersonalRecordsFunc func(ctx context.Context) ([]garmin.PersonalRecordEntry, error)
	LocationsFunc       func(ctx context.Context, year int) ([]garmin.Location, error)
}

// Activities implements garmin.Client
func (m *MockClient) Activities(ctx context.Context, year int) ([]garmin.Activity, error) {
	if m.ActivitiesFunc != nil {
		return m.ActivitiesFunc(ctx, year)
	}
	return nil, nil
}

// Sleep implements garmin.Client
func (m *MockClient) Sleep(ctx context.Context, year int) ([]garmin.SleepSummary, error) {
	if m.SleepFunc != nil {
		return m.SleepFunc(ctx, year)
	}
	return nil, nil
}

// Steps implements garmin.Client
func (m *MockClient) Steps(ctx context.Context, year int) ([]garmin.DailySteps, error) {
	if m.StepsFunc != nil {
		return m.StepsFunc(ctx, year)
	}
	return nil, nil
}

// HeartRate implements garmin.Client
func (m *MockClient) HeartRate(ctx context.Context, year int) ([]garmin.DailyHeartRate, error) {
	if m.HeartRateFunc != nil {
		return m.HeartRateFunc(ctx, year)
	}
	return nil, nil
}

// VO2Max implements garmin.Client
func (m *MockClient) VO2Max(ctx context.Context, year int) ([]garmin.VO2MaxSample, error) {
	if m.VO2MaxFunc != nil {
		return m.VO2MaxFunc(ctx, year)
	}
	return nil, nil
}

// TrainingLoad implements garmin.Client
func (m *MockClient) TrainingLoad(ctx context.Context, year int) ([]garmin.TrainingLoadDay, error) {
	if m.TrainingLoadFunc != nil {
		return m.TrainingLoadFunc(ctx, year)
	}
	return nil, nil
}

// BodyBattery implements garmin.Client
func (m *MockClient) BodyBattery(ctx context.Context, year int) ([]garmin.BodyBatteryDay, error) {
	if m.BodyBatteryFunc != nil {
		return m.BodyBatteryFunc(ctx, year)
	}
	return nil, nil
}

// Stress implements garmin.Client
func (m *MockClient) Stress(ctx context.Context, year int) ([]garmin.StressDay, error) {
	if m.StressFunc != nil {
		return m.StressFunc(ctx, year)
	}
	return nil, nil
}

// PersonalRecords implements garmin.Client
func (m *MockClient) PersonalRecords(ctx context.Context) ([]garmin.PersonalRecordEntry, error) {
	if m.PersonalRecordsFunc != nil {
		return m.PersonalRecordsFunc(ctx)
	}
	return nil, nil
}

// Locations implements garmin.Client
func (m *MockClient) Locations(ctx context.Context, year int) ([]garmin.Location, error) {
	if m.LocationsFunc != nil {
		return m.LocationsFunc(ctx, year)
	}
	return nil, nil
}

// MockGenerator is a mock insight generator
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, data *wrapped.WrappedData) (string, string, error)
}

// Generate implements insights.Generator
func (m *MockGenerator) Generate(ctx context.Context, data *wrapped.WrappedData) (string, string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, data)
	}
	return "mock insights", "mock forecast", nil
}

// FlakyStore wraps a Store and lets tests inject failures per operation
type FlakyStore struct {
	cache.Store

	PutErr error
	GetErr error
}

// Put implements cache.Store
func (s *FlakyStore) Put(ctx context.Context, key string, data []byte) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	return s.Store.Put(ctx, key, data)
}

// Get implements cache.Store
func (s *FlakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	return s.Store.Get(ctx, key)
}
