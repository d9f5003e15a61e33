package wrapped

import (
	"sort"
	"strings"
	"time"

	"garminwrapped/internal/garmin"
	"garminwrapped/internal/orchestrator"
)

// raceBand is the distance tolerance band for one canonical race distance
type raceBand struct {
	key   string
	minKm float64
	maxKm float64
}

var raceBands = []raceBand{
	{"5k", 4.8, 5.2},
	{"10k", 9.8, 10.2},
	{"half_marathon", 20.5, 21.5},
	{"marathon", 42.0, 43.0},
}

// prTypeKeys maps Garmin PR type IDs to race distance keys
var prTypeKeys = map[int]string{
	garmin.PRType5K:           "5k",
	garmin.PRType10K:          "10k",
	garmin.PRTypeHalfMarathon: "half_marathon",
	garmin.PRTypeMarathon:     "marathon",
}

// activityTimeLayouts are the timestamp shapes the upstream API is known to
// produce. Records whose timestamps match none of them are skipped, not fatal.
var activityTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseActivityTime parses an upstream local timestamp
func parseActivityTime(s string) (time.Time, bool) {
	for _, layout := range activityTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// inYearActivity pairs an activity with its parsed local start time
type inYearActivity struct {
	act  garmin.Activity
	when time.Time
}

// Aggregate derives WrappedData from a raw dataset. Pure and deterministic:
// aggregating the same dataset twice yields identical output. Sources that
// failed upstream produce nil sections and a manifest entry; sources that
// succeeded with zero data points produce nil sections without one.
func Aggregate(raw *orchestrator.RawDataset, user string) *WrappedData {
	data := &WrappedData{
		User:     user,
		Year:     raw.Year,
		Manifest: make([]string, 0),
	}

	for _, s := range raw.FailedSources() {
		data.Manifest = append(data.Manifest, string(s))
	}

	if !raw.Failed(orchestrator.SourcePersonalRecords) {
		data.AllTimeRecords = aggregateAllTimeRecords(raw.PersonalRecords)
	}
	if !raw.Failed(orchestrator.SourceActivities) {
		data.Activities = aggregateActivities(raw.Activities, raw.Year, data.AllTimeRecords)
	}
	if !raw.Failed(orchestrator.SourceSleep) {
		data.Sleep = aggregateSleep(raw.Sleep)
	}
	if !raw.Failed(orchestrator.SourceSteps) {
		data.Steps = aggregateSteps(raw.Steps)
	}
	if !raw.Failed(orchestrator.SourceHeartRate) {
		data.HeartRate = aggregateHeartRate(raw.HeartRate)
	}
	if !raw.Failed(orchestrator.SourceVO2Max) {
		data.VO2Max = aggregateVO2Max(raw.VO2Max)
	}
	if !raw.Failed(orchestrator.SourceTrainingLoad) {
		data.TrainingLoad = aggregateTrainingLoad(raw.TrainingLoad)
	}
	if !raw.Failed(orchestrator.SourceBodyBattery) {
		data.BodyBattery = aggregateBodyBattery(raw.BodyBattery)
	}
	if !raw.Failed(orchestrator.SourceStress) {
		data.Stress = aggregateStress(raw.Stress)
	}
	if !raw.Failed(orchestrator.SourceLocations) {
		data.Locations = aggregateLocations(raw.Locations)
	}

	return data
}

// aggregateActivities computes totals, highlights, monthly buckets and
// in-year race records. Activities dated outside the target year, or with
// timestamps that cannot be parsed, are dropped.
func aggregateActivities(activities []garmin.Activity, year int, allTime map[string]AllTimeRecord) *ActivitySummary {
	var inYear []inYearActivity
	for _, act := range activities {
		when, ok := parseActivityTime(act.StartTimeLocal)
		if !ok || when.Year() != year {
			continue
		}
		inYear = append(inYear, inYearActivity{act: act, when: when})
	}

	if len(inYear) == 0 {
		return nil
	}

	// measured activities carry both a distance and a duration; stats that
	// divide by either use only these
	var measured []inYearActivity
	for _, a := range inYear {
		if a.act.Distance > 0 && a.act.Duration > 0 {
			measured = append(measured, a)
		}
	}

	summary := &ActivitySummary{
		TotalRuns:      len(inYear),
		MostCommonType: mostCommonType(inYear),
		Records:        yearRecords(measured, allTime),
		Monthly:        monthlyStats(inYear, year),
	}

	var distances, durations, paces, calories, hrs []float64
	for _, a := range measured {
		distances = append(distances, a.act.Distance)
		durations = append(durations, a.act.Duration)
		paces = append(paces, (a.act.Duration/60)/(a.act.Distance/1000))
		calories = append(calories, a.act.Calories)
		if a.act.AverageHR > 0 {
			hrs = append(hrs, a.act.AverageHR)
		}
		summary.TotalDistanceKm += a.act.Distance / 1000
		summary.TotalTimeHours += a.act.Duration / 3600
		summary.TotalElevationM += a.act.ElevationGain
		summary.TotalCalories += a.act.Calories
	}
	summary.TotalDistanceKm = round2(summary.TotalDistanceKm)
	summary.TotalTimeHours = round2(summary.TotalTimeHours)
	summary.TotalElevationM = round1(summary.TotalElevationM)

	if len(measured) > 0 {
		summary.LongestRun = longestRun(measured)
		summary.LongestByTime = longestByTime(measured)
		summary.FastestPace = fastestPace(measured)
		summary.MostElevation = mostElevation(measured)

		avgPace := mean(paces)
		summary.Averages = Averages{
			DistanceKm:      round2(mean(distances) / 1000),
			PaceMinKm:       round2(avgPace),
			PaceFormatted:   FormatPace(avgPace),
			DurationMinutes: round2(mean(durations) / 60),
			HeartRateBpm:    round1(mean(hrs)),
			CaloriesPerRun:  round1(mean(calories)),
		}
	} else {
		summary.Averages.PaceFormatted = "0:00"
	}

	summary.Frequency = Frequency{
		RunsPerWeek:  round2(runsPerWeek(inYear)),
		RunsPerMonth: round2(float64(len(inYear)) / 12),
	}

	return summary
}

func longestRun(measured []inYearActivity) *RunHighlight {
	best := measured[0]
	for _, a := range measured[1:] {
		if a.act.Distance > best.act.Distance {
			best = a
		}
	}
	return &RunHighlight{
		DistanceKm:      round2(best.act.Distance / 1000),
		DurationMinutes: round2(best.act.Duration / 60),
		Date:            best.act.StartTimeLocal,
	}
}

func longestByTime(measured []inYearActivity) *RunHighlight {
	best := measured[0]
	for _, a := range measured[1:] {
		if a.act.Duration > best.act.Duration {
			best = a
		}
	}
	return &RunHighlight{
		DistanceKm:      round2(best.act.Distance / 1000),
		DurationMinutes: round2(best.act.Duration / 60),
		Date:            best.act.StartTimeLocal,
		ActivityType:    best.act.ActivityType.TypeKey,
	}
}

func fastestPace(measured []inYearActivity) *PaceHighlight {
	best := measured[0]
	bestPace := pace(best.act)
	for _, a := range measured[1:] {
		if p := pace(a.act); p < bestPace {
			best, bestPace = a, p
		}
	}
	return &PaceHighlight{
		PaceMinKm:     round2(bestPace),
		PaceFormatted: FormatPace(bestPace),
		Date:          best.act.StartTimeLocal,
		DistanceKm:    round2(best.act.Distance / 1000),
	}
}

func mostElevation(measured []inYearActivity) *ElevationHighlight {
	best := measured[0]
	for _, a := range measured[1:] {
		if a.act.ElevationGain > best.act.ElevationGain {
			best = a
		}
	}
	return &ElevationHighlight{
		ElevationM: round1(best.act.ElevationGain),
		Date:       best.act.StartTimeLocal,
		DistanceKm: round2(best.act.Distance / 1000),
	}
}

// pace returns minutes per km
func pace(act garmin.Activity) float64 {
	return (act.Duration / 60) / (act.Distance / 1000)
}

// mostCommonType returns the most frequent activity type key; ties resolve
// to the lexicographically smallest key so the result is deterministic
func mostCommonType(inYear []inYearActivity) string {
	counts := make(map[string]int)
	for _, a := range inYear {
		key := a.act.ActivityType.TypeKey
		if key == "" {
			key = "unknown"
		}
		counts[key]++
	}

	var best string
	for key, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && key < best) {
			best = key
		}
	}
	return best
}

// runsPerWeek averages activity count over the span between the first and
// last activity of the year
func runsPerWeek(inYear []inYearActivity) float64 {
	if len(inYear) < 2 {
		return 0
	}

	first, last := inYear[0].when, inYear[0].when
	for _, a := range inYear[1:] {
		if a.when.Before(first) {
			first = a.when
		}
		if a.when.After(last) {
			last = a.when
		}
	}

	weeks := last.Sub(first).Hours() / 24 / 7
	if weeks == 0 {
		return float64(len(inYear))
	}
	return float64(len(inYear)) / weeks
}

// monthlyStats buckets activities into the fixed January..December table of
// the target year
func monthlyStats(inYear []inYearActivity, year int) []MonthStats {
	monthly := make([]MonthStats, 12)
	totalSeconds := make([]float64, 12)

	for i := range monthly {
		monthly[i].Month = i + 1
		monthly[i].AvgPaceFormatted = "0:00"
	}

	for _, a := range inYear {
		m := int(a.when.Month()) - 1
		monthly[m].Count++
		monthly[m].TotalDistanceKm += a.act.Distance / 1000
		monthly[m].TotalTimeHours += a.act.Duration / 3600
		totalSeconds[m] += a.act.Duration
	}

	for i := range monthly {
		monthly[i].TotalDistanceKm = round2(monthly[i].TotalDistanceKm)
		monthly[i].TotalTimeHours = round2(monthly[i].TotalTimeHours)
		if monthly[i].TotalDistanceKm > 0 && totalSeconds[i] > 0 {
			p := (totalSeconds[i] / 60) / monthly[i].TotalDistanceKm
			monthly[i].AvgPaceMinKm = round2(p)
			monthly[i].AvgPaceFormatted = FormatPace(p)
		}
	}

	return monthly
}

// yearRecords finds the in-year best time per canonical race distance.
// Faster time wins; equal times resolve to the earlier date. Distances with
// no qualifying activity are omitted from the table.
func yearRecords(measured []inYearActivity, allTime map[string]AllTimeRecord) map[string]*RaceRecord {
	records := make(map[string]*RaceRecord)
	holders := make(map[string]inYearActivity)

	for _, band := range raceBands {
		for _, a := range measured {
			km := a.act.Distance / 1000
			if km < band.minKm || km > band.maxKm {
				continue
			}

			cur, ok := holders[band.key]
			if ok && (a.act.Duration > cur.act.Duration ||
				(a.act.Duration == cur.act.Duration && !a.when.Before(cur.when))) {
				continue
			}

			holders[band.key] = a
			p := pace(a.act)
			records[band.key] = &RaceRecord{
				TimeMinutes:   round2(a.act.Duration / 60),
				TimeFormatted: FormatDuration(a.act.Duration),
				PaceMinKm:     round2(p),
				PaceFormatted: FormatPace(p),
				Date:          a.act.StartTimeLocal,
				AllTime:       isAllTimeRecord(band.key, a.act.Duration, allTime),
			}
		}
	}

	return records
}

// isAllTimeRecord reports whether an in-year time meets or beats the
// all-time mark. A missing all-time entry means the in-year run is the best
// on record; an entirely absent all-time table (the source failed) claims
// nothing.
func isAllTimeRecord(key string, seconds float64, allTime map[string]AllTimeRecord) bool {
	if allTime == nil {
		return false
	}
	entry, ok := allTime[key]
	if !ok {
		return true
	}
	// 2 second tolerance for rounding in upstream values
	return seconds <= entry.TimeSeconds+2
}

// aggregateAllTimeRecords parses the all-time PR table from the upstream
// personal-records payload
func aggregateAllTimeRecords(entries []garmin.PersonalRecordEntry) map[string]AllTimeRecord {
	if len(entries) == 0 {
		return nil
	}

	records := make(map[string]AllTimeRecord)
	for _, e := range entries {
		key, ok := prTypeKeys[e.TypeID]
		if !ok || e.Value <= 0 {
			continue
		}
		records[key] = AllTimeRecord{
			TimeSeconds:   e.Value,
			TimeFormatted: FormatDuration(e.Value),
			Date:          e.Date,
		}
	}

	if len(records) == 0 {
		return nil
	}
	return records
}

func aggregateSleep(nights []garmin.SleepSummary) *SleepSummary {
	var scores, hours, deep, light, rem, awakeMin []float64
	for _, n := range nights {
		if n.SleepScore > 0 {
			scores = append(scores, n.SleepScore)
		}
		if n.SleepSeconds > 0 {
			hours = append(hours, n.SleepSeconds/3600)
		}
		if n.DeepSeconds > 0 {
			deep = append(deep, n.DeepSeconds/3600)
		}
		if n.LightSeconds > 0 {
			light = append(light, n.LightSeconds/3600)
		}
		if n.RemSeconds > 0 {
			rem = append(rem, n.RemSeconds/3600)
		}
		if n.AwakeSeconds > 0 {
			awakeMin = append(awakeMin, n.AwakeSeconds/60)
		}
	}

	if len(scores) == 0 && len(hours) == 0 {
		return nil
	}

	s := &SleepSummary{}
	if len(scores) > 0 {
		s.AvgScore = round1(mean(scores))
		s.BestScore = maxOf(scores)
		s.WorstScore = minOf(scores)
	}
	if len(hours) > 0 {
		s.AvgHours = round1(mean(hours))
		s.TotalHours = round1(sum(hours))
		s.LongestHours = round1(maxOf(hours))
	}
	s.AvgDeepHours = round1(mean(deep))
	s.AvgLightHours = round1(mean(light))
	s.AvgRemHours = round1(mean(rem))
	s.AvgAwakeMinutes = round1(mean(awakeMin))
	return s
}

func aggregateSteps(days []garmin.DailySteps) *StepsSummary {
	var daily []int
	for _, d := range days {
		if d.TotalSteps > 0 {
			daily = append(daily, d.TotalSteps)
		}
	}
	if len(daily) == 0 {
		return nil
	}

	s := &StepsSummary{}
	for _, n := range daily {
		s.TotalSteps += n
		if n > s.MostStepsDay {
			s.MostStepsDay = n
		}
		if n >= 10000 {
			s.DaysOver10K++
		}
	}
	s.AvgDailySteps = round1(float64(s.TotalSteps) / float64(len(daily)))
	return s
}

func aggregateHeartRate(days []garmin.DailyHeartRate) *HeartRateSummary {
	var resting, maxHR []float64
	for _, d := range days {
		if d.RestingHeartRate > 0 {
			resting = append(resting, d.RestingHeartRate)
		}
		if d.MaxHeartRate > 0 {
			maxHR = append(maxHR, d.MaxHeartRate)
		}
	}
	if len(resting) == 0 && len(maxHR) == 0 {
		return nil
	}

	s := &HeartRateSummary{AvgMaxHR: round1(mean(maxHR))}
	if len(resting) > 0 {
		s.AvgRestingHR = round1(mean(resting))
		s.LowestRestingHR = minOf(resting)
		s.HighestRestingHR = maxOf(resting)
	}
	return s
}

func aggregateVO2Max(samples []garmin.VO2MaxSample) *VO2MaxSummary {
	valid := make([]garmin.VO2MaxSample, 0, len(samples))
	for _, v := range samples {
		if v.Value > 0 {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	// calendar dates are ISO formatted, so a string sort is chronological
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].CalendarDate < valid[j].CalendarDate
	})

	var values []float64
	for _, v := range valid {
		values = append(values, v.Value)
	}

	s := &VO2MaxSummary{
		Latest:  values[len(values)-1],
		Highest: maxOf(values),
		Lowest:  minOf(values),
		Avg:     round1(mean(values)),
	}
	if len(values) > 1 {
		improvement := values[len(values)-1] - values[0]
		s.Improvement = round1(improvement)
		s.ImprovementPercent = round1(improvement / values[0] * 100)
	}
	return s
}

func aggregateTrainingLoad(days []garmin.TrainingLoadDay) *TrainingLoadSummary {
	sorted := make([]garmin.TrainingLoadDay, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CalendarDate < sorted[j].CalendarDate
	})

	var acute, chronic []float64
	dist := make(map[string]int)
	for _, d := range sorted {
		if d.AcuteLoad > 0 {
			acute = append(acute, d.AcuteLoad)
		}
		if d.ChronicLoad > 0 {
			chronic = append(chronic, d.ChronicLoad)
		}
		if d.StatusPhrase != "" {
			dist[d.StatusPhrase]++
		}
	}

	if len(acute) == 0 && len(chronic) == 0 && len(dist) == 0 {
		return nil
	}

	s := &TrainingLoadSummary{}
	if len(acute) > 0 {
		s.AvgAcuteLoad = round1(mean(acute))
		s.HighestAcuteLoad = round1(maxOf(acute))
		s.LatestAcuteLoad = round1(acute[len(acute)-1])
	}
	if len(chronic) > 0 {
		s.AvgChronicLoad = round1(mean(chronic))
		s.LatestChronicLoad = round1(chronic[len(chronic)-1])
	}
	if len(dist) > 0 {
		s.StatusDistribution = dist
		var best string
		for phrase, n := range dist {
			if best == "" || n > dist[best] || (n == dist[best] && phrase < best) {
				best = phrase
			}
		}
		s.MostCommonStatus = best
	}
	return s
}

func aggregateBodyBattery(days []garmin.BodyBatteryDay) *BodyBatterySummary {
	var charged, drained []float64
	for _, d := range days {
		if d.Charged > 0 {
			charged = append(charged, d.Charged)
		}
		if d.Drained != 0 {
			drained = append(drained, abs(d.Drained))
		}
	}
	if len(charged) == 0 && len(drained) == 0 {
		return nil
	}

	s := &BodyBatterySummary{}
	if len(charged) > 0 {
		s.AvgCharged = round1(mean(charged))
		s.BestRechargeDay = maxOf(charged)
	}
	if len(drained) > 0 {
		s.AvgDrained = round1(mean(drained))
		s.MostDrainingDay = maxOf(drained)
	}
	return s
}

func aggregateStress(days []garmin.StressDay) *StressSummary {
	var avgs []float64
	for _, d := range days {
		if d.AvgLevel > 0 {
			avgs = append(avgs, d.AvgLevel)
		}
	}
	if len(avgs) == 0 {
		return nil
	}

	return &StressSummary{
		AvgLevel:   round1(mean(avgs)),
		HighestDay: maxOf(avgs),
		LowestDay:  minOf(avgs),
	}
}

// aggregateLocations deduplicates (country, place) pairs case-insensitively,
// keeping the first-seen casing, and returns them sorted
func aggregateLocations(locations []garmin.Location) []Place {
	seen := make(map[string]Place)
	for _, l := range locations {
		country := strings.TrimSpace(l.Country)
		place := strings.TrimSpace(l.Place)
		if country == "" && place == "" {
			continue
		}
		key := strings.ToLower(country) + "\x00" + strings.ToLower(place)
		if _, ok := seen[key]; !ok {
			seen[key] = Place{Country: country, Place: place}
		}
	}

	places := make([]Place, 0, len(seen))
	for _, p := range seen {
		places = append(places, p)
	}
	sort.Slice(places, func(i, j int) bool {
		if places[i].Country != places[j].Country {
			return places[i].Country < places[j].Country
		}
		return places[i].Place < places[j].Place
	})
	return places
}

func sum(vs []float64) float64 {
	var s float64
	for _, v := range vs {
		s += v
	}
	return s
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
