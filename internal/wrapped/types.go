// Package wrapped derives the cached year-in-review summary from a raw
// per-source dataset.
package wrapped

// WrappedData is the persisted year-in-review summary. Each section pointer
// is nil when the section is absent, and absent sections are serialized as
// explicit nulls so consumers can tell "no data" from "not yet computed".
// Never mutated in place: a re-fetch produces a whole new value.
type WrappedData struct {
	User string `json:"user"`
	Year int    `json:"year"`

	Activities     *ActivitySummary         `json:"activities"`
	Sleep          *SleepSummary            `json:"sleep"`
	Steps          *StepsSummary            `json:"steps"`
	HeartRate      *HeartRateSummary        `json:"heart_rate"`
	VO2Max         *VO2MaxSummary           `json:"vo2max"`
	TrainingLoad   *TrainingLoadSummary     `json:"training_load"`
	BodyBattery    *BodyBatterySummary      `json:"body_battery"`
	Stress         *StressSummary           `json:"stress"`
	AllTimeRecords map[string]AllTimeRecord `json:"all_time_records"`
	Locations      []Place                  `json:"locations"`

	// Manifest lists the sources whose sections are absent because the
	// upstream fetch failed, in stable order.
	Manifest []string `json:"manifest"`
}

// ActivitySummary aggregates the year's activities, including the monthly
// table and the in-year personal records derived from them
type ActivitySummary struct {
	TotalRuns       int     `json:"total_runs"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	TotalTimeHours  float64 `json:"total_time_hours"`
	TotalElevationM float64 `json:"total_elevation_m"`
	TotalCalories   float64 `json:"total_calories"`

	LongestRun    *RunHighlight       `json:"longest_run"`
	LongestByTime *RunHighlight       `json:"longest_by_time"`
	FastestPace   *PaceHighlight      `json:"fastest_pace"`
	MostElevation *ElevationHighlight `json:"most_elevation"`

	Averages  Averages  `json:"averages"`
	Frequency Frequency `json:"frequency"`

	MostCommonType string `json:"most_common_activity_type"`

	Records map[string]*RaceRecord `json:"personal_records"`
	Monthly []MonthStats           `json:"monthly_stats"`
}

// RunHighlight points at one standout activity
type RunHighlight struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
	Date            string  `json:"date"`
	ActivityType    string  `json:"activity_type,omitempty"`
}

// PaceHighlight points at the fastest activity of the year
type PaceHighlight struct {
	PaceMinKm     float64 `json:"pace_min_km"`
	PaceFormatted string  `json:"pace_formatted"`
	Date          string  `json:"date"`
	DistanceKm    float64 `json:"distance_km"`
}

// ElevationHighlight points at the hilliest activity of the year
type ElevationHighlight struct {
	ElevationM float64 `json:"elevation_m"`
	Date       string  `json:"date"`
	DistanceKm float64 `json:"distance_km"`
}

// Averages are computed only over activities that report the given metric;
// an activity without heart rate data does not drag the HR average down
type Averages struct {
	DistanceKm      float64 `json:"distance_km"`
	PaceMinKm       float64 `json:"pace_min_km"`
	PaceFormatted   string  `json:"pace_formatted"`
	DurationMinutes float64 `json:"duration_minutes"`
	HeartRateBpm    float64 `json:"heart_rate_bpm"`
	CaloriesPerRun  float64 `json:"calories_per_run"`
}

// Frequency summarizes how often the user was active
type Frequency struct {
	RunsPerWeek  float64 `json:"runs_per_week"`
	RunsPerMonth float64 `json:"runs_per_month"`
}

// RaceRecord is the in-year best time for one canonical race distance.
// AllTime is set when the in-year time meets or beats the all-time mark.
type RaceRecord struct {
	TimeMinutes   float64 `json:"time_minutes"`
	TimeFormatted string  `json:"time_formatted"`
	PaceMinKm     float64 `json:"pace_min_km"`
	PaceFormatted string  `json:"pace_formatted"`
	Date          string  `json:"date"`
	AllTime       bool    `json:"all_time"`
}

// MonthStats is one bucket of the ordered January..December monthly table
type MonthStats struct {
	Month            int     `json:"month"`
	Count            int     `json:"count"`
	TotalDistanceKm  float64 `json:"total_distance_km"`
	TotalTimeHours   float64 `json:"total_time_hours"`
	AvgPaceMinKm     float64 `json:"avg_pace_min_km"`
	AvgPaceFormatted string  `json:"avg_pace_formatted"`
}

// SleepSummary aggregates the year's nightly sleep data
type SleepSummary struct {
	AvgScore        float64 `json:"avg_sleep_score"`
	BestScore       float64 `json:"best_sleep_score"`
	WorstScore      float64 `json:"worst_sleep_score"`
	AvgHours        float64 `json:"avg_sleep_hours"`
	TotalHours      float64 `json:"total_sleep_hours"`
	LongestHours    float64 `json:"longest_sleep_hours"`
	AvgDeepHours    float64 `json:"avg_deep_sleep_hours"`
	AvgLightHours   float64 `json:"avg_light_sleep_hours"`
	AvgRemHours     float64 `json:"avg_rem_sleep_hours"`
	AvgAwakeMinutes float64 `json:"avg_awake_minutes"`
}

// StepsSummary aggregates the year's daily step counts
type StepsSummary struct {
	TotalSteps    int     `json:"total_steps"`
	AvgDailySteps float64 `json:"avg_daily_steps"`
	MostStepsDay  int     `json:"most_steps_day"`
	DaysOver10K   int     `json:"days_over_10k"`
}

// HeartRateSummary aggregates the year's daily heart rate data
type HeartRateSummary struct {
	AvgRestingHR     float64 `json:"avg_resting_hr"`
	LowestRestingHR  float64 `json:"lowest_resting_hr"`
	HighestRestingHR float64 `json:"highest_resting_hr"`
	AvgMaxHR         float64 `json:"avg_max_hr"`
}

// VO2MaxSummary aggregates the year's VO2 max measurements
type VO2MaxSummary struct {
	Latest             float64 `json:"latest_vo2_max"`
	Highest            float64 `json:"highest_vo2_max"`
	Lowest             float64 `json:"lowest_vo2_max"`
	Avg                float64 `json:"avg_vo2_max"`
	Improvement        float64 `json:"vo2_improvement"`
	ImprovementPercent float64 `json:"vo2_improvement_percent"`
}

// TrainingLoadSummary aggregates the year's training status data
type TrainingLoadSummary struct {
	AvgAcuteLoad       float64        `json:"avg_acute_training_load"`
	HighestAcuteLoad   float64        `json:"highest_acute_load"`
	LatestAcuteLoad    float64        `json:"latest_acute_load"`
	AvgChronicLoad     float64        `json:"avg_chronic_training_load"`
	LatestChronicLoad  float64        `json:"latest_chronic_load"`
	StatusDistribution map[string]int `json:"training_status_distribution"`
	MostCommonStatus   string         `json:"most_common_status"`
}

// BodyBatterySummary aggregates the year's Body Battery data
type BodyBatterySummary struct {
	AvgCharged      float64 `json:"avg_battery_charged"`
	BestRechargeDay float64 `json:"best_recharge_day"`
	AvgDrained      float64 `json:"avg_battery_drained"`
	MostDrainingDay float64 `json:"most_draining_day"`
}

// StressSummary aggregates the year's daily stress data
type StressSummary struct {
	AvgLevel   float64 `json:"avg_stress_level"`
	HighestDay float64 `json:"highest_stress_day"`
	LowestDay  float64 `json:"lowest_stress_day"`
}

// AllTimeRecord is one entry of the all-time personal record table
type AllTimeRecord struct {
	TimeSeconds   float64 `json:"time_seconds"`
	TimeFormatted string  `json:"time_formatted"`
	Date          string  `json:"date"`
}

// Place is one deduplicated (country, place) location tuple
type Place struct {
	Country string `json:"country"`
	Place   string `json:"place"`
}
