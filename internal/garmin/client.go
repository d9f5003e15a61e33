package garmin

import (
	"context"
	"errors"
	"fmt"

	"resty.dev/v3"

	"garminwrapped/internal/ratelimit"
)

// Client is the already-authenticated upstream handle, one method per data
// source. The login flow that produces the session token lives outside this
// package; implementations are stateless per call.
type Client interface {
	Activities(ctx context.Context, year int) ([]Activity, error)
	Sleep(ctx context.Context, year int) ([]SleepSummary, error)
	Steps(ctx context.Context, year int) ([]DailySteps, error)
	HeartRate(ctx context.Context, year int) ([]DailyHeartRate, error)
	VO2Max(ctx context.Context, year int) ([]VO2MaxSample, error)
	TrainingLoad(ctx context.Context, year int) ([]TrainingLoadDay, error)
	BodyBattery(ctx context.Context, year int) ([]BodyBatteryDay, error)
	Stress(ctx context.Context, year int) ([]StressDay, error)
	PersonalRecords(ctx context.Context) ([]PersonalRecordEntry, error)
	Locations(ctx context.Context, year int) ([]Location, error)
}

// SessionClient talks to the Garmin Connect API using a previously obtained
// session token
type SessionClient struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
}

// NewSessionClient creates a client bound to one authenticated session
func NewSessionClient(token, baseURL string) *SessionClient {
	client := NewHTTPClient(baseURL).
		SetHeader("Authorization", "Bearer "+token)

	return &SessionClient{
		client:  client,
		limiter: ratelimit.GetLimiter(),
	}
}

// yearRange returns the inclusive date bounds of a calendar year
func yearRange(year int) (string, string) {
	return fmt.Sprintf("%d-01-01", year), fmt.Sprintf("%d-12-31", year)
}

// getJSON performs one rate-limited GET and decodes the response into out
func (c *SessionClient) getJSON(ctx context.Context, path string, query map[string]string, out any) error {
	if err := c.limiter.Wait(ctx, ratelimit.APIGarmin); err != nil {
		return NewTimeoutError(err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(out).
		Get(path)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return NewTimeoutError(err)
		}
		return NewNetworkError(err)
	}

	if !resp.IsSuccess() {
		return ClassifyHTTPError(resp.StatusCode())
	}

	return nil
}

// Activities fetches all activities recorded during the year
func (c *SessionClient) Activities(ctx context.Context, year int) ([]Activity, error) {
	start, end := yearRange(year)
	var out []Activity
	err := c.getJSON(ctx, "/activitylist-service/activities/search/activities", map[string]string{
		"startDate": start,
		"endDate":   end,
		"start":     "0",
		"limit":     "1000",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	return out, nil
}

// Sleep fetches nightly sleep summaries for the year
func (c *SessionClient) Sleep(ctx context.Context, year int) ([]SleepSummary, error) {
	start, end := yearRange(year)
	var out []SleepSummary
	err := c.getJSON(ctx, "/wellness-service/stats/sleep/daily", map[string]string{
		"startDate": start,
		"endDate":   end,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sleep data: %w", err)
	}
	return out, nil
}

// Steps fetches daily step totals for the year
func (c *SessionClient) Steps(ctx context.Context, year int) ([]DailySteps, error) {
	start, end := yearRange(year)
	var out []DailySteps
	err := c.getJSON(ctx, "/usersummary-service/stats/steps/daily", map[string]string{
		"startDate": start,
		"endDate":   end,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch steps data: %w", err)
	}
	return out, nil
}

// HeartRate fetches daily heart rate summaries for the year
func (c *SessionClient) HeartRate(ctx context.Context, year int) ([]DailyHeartRate, error) {
	start, end := yearRange(year)
	var out []DailyHeartRate
	err := c.getJSON(ctx, "/wellness-service/stats/heartRate/daily", map[string]string{
		"startDate": start,
		"endDate":   end,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch heart rate data: %w", err)
	}
	return out, nil
}

// VO2Max fetches VO2 max measurements for the year
func (c *SessionClient) VO2Max(ctx context.Context, year int) ([]VO2MaxSample, error) {
	start, end := yearRange(year)
	var out []VO2MaxSample
	err := c.getJSON(ctx, "/metrics-service/metrics/maxmet/daily", map[string]string{
		"startDate": start,
		"endDate":   end,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch VO2 max data: %w", err)
	}
	return out, nil
}

// TrainingLoad fetches daily training status data for the year
func (c *SessionClient) TrainingLoad(ctx context.Context, year int) ([]TrainingLoadDay, error) {
	start, end := yearRange(year)
	var out []TrainingLoadDay
	err := c.getJSON(ctx, "/metrics-service/metrics/trainingstatus/daily", map[string]string{
		"startDate": start,
		"endDate":   end,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch training load data: %w", err)
	}
	return out, nil
}

// BodyBattery fetches daily Body Battery reports for the year
func (c *SessionClient) BodyBattery(ctx context.Context, year int) ([]BodyBatteryDay, error) {
	start, end := yearRange(year)
	var out []BodyBatteryDay
	err := c.getJSON(ctx, "/wellness-service/wellness/bodyBattery/reports/daily", map[string]string{
		"startDate": start,
		"endDate":   end,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch body battery data: %w", err)
	}
	return out, nil
}

// Stress fetches daily stress summaries for the year
func (c *SessionClient) Stress(ctx context.Context, year int) ([]StressDay, error) {
	start, end := yearRange(year)
	var out []StressDay
	err := c.getJSON(ctx, "/usersummary-service/stats/stress/daily", map[string]string{
		"startDate": start,
		"endDate":   end,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stress data: %w", err)
	}
	return out, nil
}

// PersonalRecords fetches the user's all-time personal records
func (c *SessionClient) PersonalRecords(ctx context.Context) ([]PersonalRecordEntry, error) {
	var out []PersonalRecordEntry
	err := c.getJSON(ctx, "/personalrecord-service/personalrecord/prs", nil, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch personal records: %w", err)
	}
	return out, nil
}

// Locations fetches the distinct places activities were recorded at during the year
func (c *SessionClient) Locations(ctx context.Context, year int) ([]Location, error) {
	start, end := yearRange(year)
	var out []Location
	err := c.getJSON(ctx, "/activitylist-service/activities/locations", map[string]string{
		"startDate": start,
		"endDate":   end,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch locations: %w", err)
	}
	return out, nil
}
