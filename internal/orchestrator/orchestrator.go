// Package orchestrator issues all upstream data-source calls for one
// user-year concurrently and collects the results into a RawDataset.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"garminwrapped/internal/garmin"
)

// Source identifies one upstream data category
type Source string

const (
	SourceActivities      Source = "activities"
	SourceSleep           Source = "sleep"
	SourceSteps           Source = "steps"
	SourceHeartRate       Source = "heart_rate"
	SourceVO2Max          Source = "vo2max"
	SourceTrainingLoad    Source = "training_load"
	SourceBodyBattery     Source = "body_battery"
	SourceStress          Source = "stress"
	SourcePersonalRecords Source = "personal_records"
	SourceLocations       Source = "locations"
)

// AllSources is the fixed set of sources, in stable order
var AllSources = []Source{
	SourceActivities,
	SourceSleep,
	SourceSteps,
	SourceHeartRate,
	SourceVO2Max,
	SourceTrainingLoad,
	SourceBodyBattery,
	SourceStress,
	SourcePersonalRecords,
	SourceLocations,
}

// RawDataset holds the per-source results of one fetch run. A source appears
// either in its typed field or in Failures, never both. Immutable once Fetch
// returns.
type RawDataset struct {
	Year            int
	Activities      []garmin.Activity
	Sleep           []garmin.SleepSummary
	Steps           []garmin.DailySteps
	HeartRate       []garmin.DailyHeartRate
	VO2Max          []garmin.VO2MaxSample
	TrainingLoad    []garmin.TrainingLoadDay
	BodyBattery     []garmin.BodyBatteryDay
	Stress          []garmin.StressDay
	PersonalRecords []garmin.PersonalRecordEntry
	Locations       []garmin.Location

	Failures map[Source]error
}

// Failed reports whether the given source failed during the fetch
func (d *RawDataset) Failed(s Source) bool {
	_, ok := d.Failures[s]
	return ok
}

// FailedSources returns the failed sources in stable order
func (d *RawDataset) FailedSources() []Source {
	var failed []Source
	for _, s := range AllSources {
		if d.Failed(s) {
			failed = append(failed, s)
		}
	}
	return failed
}

// result is sent by each source goroutine to the fan-in loop
type result struct {
	source Source
	err    error
}

// Fetch runs one request per data source concurrently through client and
// fans the results into a RawDataset. Individual source failures are
// recorded per source and do not abort the run. An authentication failure
// on any source cancels the remaining requests immediately and is returned
// to the caller instead of a dataset; fetching with a dead session cannot
// produce valid data.
func Fetch(ctx context.Context, client garmin.Client, year int, budget time.Duration) (*RawDataset, error) {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	ds := &RawDataset{
		Year:     year,
		Failures: make(map[Source]error),
	}

	// Each task writes only its own dataset field; the WaitGroup provides
	// the happens-before edge for the reads below.
	type task struct {
		source Source
		run    func(context.Context) error
	}

	tasks := []task{
		{SourceActivities, func(ctx context.Context) error {
			v, err := client.Activities(ctx, year)
			ds.Activities = v
			return err
		}},
		{SourceSleep, func(ctx context.Context) error {
			v, err := client.Sleep(ctx, year)
			ds.Sleep = v
			return err
		}},
		{SourceSteps, func(ctx context.Context) error {
			v, err := client.Steps(ctx, year)
			ds.Steps = v
			return err
		}},
		{SourceHeartRate, func(ctx context.Context) error {
			v, err := client.HeartRate(ctx, year)
			ds.HeartRate = v
			return err
		}},
		{SourceVO2Max, func(ctx context.Context) error {
			v, err := client.VO2Max(ctx, year)
			ds.VO2Max = v
			return err
		}},
		{SourceTrainingLoad, func(ctx context.Context) error {
			v, err := client.TrainingLoad(ctx, year)
			ds.TrainingLoad = v
			return err
		}},
		{SourceBodyBattery, func(ctx context.Context) error {
			v, err := client.BodyBattery(ctx, year)
			ds.BodyBattery = v
			return err
		}},
		{SourceStress, func(ctx context.Context) error {
			v, err := client.Stress(ctx, year)
			ds.Stress = v
			return err
		}},
		{SourcePersonalRecords, func(ctx context.Context) error {
			v, err := client.PersonalRecords(ctx)
			ds.PersonalRecords = v
			return err
		}},
		{SourceLocations, func(ctx context.Context) error {
			v, err := client.Locations(ctx, year)
			ds.Locations = v
			return err
		}},
	}

	resultChan := make(chan result, len(tasks))

	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			resultChan <- result{source: t.source, err: t.run(ctx)}
		}(t)
	}

	// Close the result channel when all workers are done
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var authErr error
	for res := range resultChan {
		if res.err == nil {
			continue
		}
		if garmin.IsAuthError(res.err) {
			if authErr == nil {
				authErr = res.err
			}
			// Fail fast: siblings still in flight get cancelled
			cancel()
			continue
		}
		ds.Failures[res.source] = res.err
	}

	if authErr != nil {
		return nil, authErr
	}

	return ds, nil
}
