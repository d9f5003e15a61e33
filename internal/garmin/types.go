package garmin

// ActivityType holds the nested type descriptor Garmin attaches to each activity
type ActivityType struct {
	TypeKey string `json:"typeKey"`
}

// Activity represents a single recorded activity (run, ride, swim, ...)
type Activity struct {
	ActivityID     int64        `json:"activityId"`
	ActivityName   string       `json:"activityName"`
	ActivityType   ActivityType `json:"activityType"`
	StartTimeLocal string       `json:"startTimeLocal"` // "2006-01-02 15:04:05"
	Distance       float64      `json:"distance"`       // meters
	Duration       float64      `json:"duration"`       // seconds
	ElevationGain  float64      `json:"elevationGain"`  // meters
	Calories       float64      `json:"calories"`
	AverageHR      float64      `json:"averageHR"` // 0 when the device reported none
	LocationName   string       `json:"locationName"`
}

// SleepSummary represents one night of sleep
type SleepSummary struct {
	CalendarDate string  `json:"calendarDate"` // "2006-01-02"
	SleepScore   float64 `json:"overallSleepScore"`
	SleepSeconds float64 `json:"sleepTimeSeconds"`
	DeepSeconds  float64 `json:"deepSleepSeconds"`
	LightSeconds float64 `json:"lightSleepSeconds"`
	RemSeconds   float64 `json:"remSleepSeconds"`
	AwakeSeconds float64 `json:"awakeSleepSeconds"`
}

// DailySteps represents one day of step counting
type DailySteps struct {
	CalendarDate string `json:"calendarDate"`
	TotalSteps   int    `json:"totalSteps"`
}

// DailyHeartRate represents one day of heart rate monitoring
type DailyHeartRate struct {
	CalendarDate     string  `json:"calendarDate"`
	RestingHeartRate float64 `json:"restingHeartRate"`
	MaxHeartRate     float64 `json:"maxHeartRate"`
}

// VO2MaxSample represents one VO2 max measurement
type VO2MaxSample struct {
	CalendarDate string  `json:"calendarDate"`
	Value        float64 `json:"vo2MaxPreciseValue"`
}

// TrainingLoadDay represents one day of training status data
type TrainingLoadDay struct {
	CalendarDate string  `json:"calendarDate"`
	AcuteLoad    float64 `json:"dailyTrainingLoadAcute"`
	ChronicLoad  float64 `json:"dailyTrainingLoadChronic"`
	StatusPhrase string  `json:"trainingStatusFeedbackPhrase"`
}

// BodyBatteryDay represents one day of Body Battery data
type BodyBatteryDay struct {
	CalendarDate string  `json:"calendarDate"`
	Charged      float64 `json:"charged"`
	Drained      float64 `json:"drained"` // reported as a negative number by the API
}

// StressDay represents one day of stress monitoring
type StressDay struct {
	CalendarDate string  `json:"calendarDate"`
	AvgLevel     float64 `json:"avgStressLevel"`
	MaxLevel     float64 `json:"maxStressLevel"`
}

// Personal record type IDs used by the Garmin PR endpoint
const (
	PRType5K           = 5
	PRType10K          = 6
	PRTypeMarathon     = 7
	PRTypeHalfMarathon = 8
)

// PersonalRecordEntry represents one all-time personal record
type PersonalRecordEntry struct {
	TypeID int     `json:"typeId"`
	Value  float64 `json:"value"` // seconds for time-based records
	Date   string  `json:"actStartDateTimeInGMTFormatted"`
}

// Location represents one place an activity was recorded at
type Location struct {
	Country string `json:"country"`
	Place   string `json:"place"`
}
