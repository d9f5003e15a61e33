package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"garminwrapped/internal/cache"
	"garminwrapped/internal/config"
	"garminwrapped/internal/garmin"
	"garminwrapped/internal/insights"
	"garminwrapped/internal/service"
	"garminwrapped/internal/wrapped"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Open the configured cache backend
	store, err := cache.Open(ctx, cache.Options{
		Backend: cfg.CacheBackend,
		Dir:     cfg.CacheDir,
		NATSURL: cfg.NATSURL,
		Bucket:  cfg.NATSBucket,
	})
	if err != nil {
		log.Fatalf("Failed to open cache store: %v", err)
	}
	defer store.Close()

	client := garmin.NewSessionClient(cfg.GarminToken, cfg.GarminBaseURL)

	var generator insights.Generator
	if cfg.GeminiAPIKey != "" {
		generator = insights.NewGeminiGenerator(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
	}

	svc := service.New(client, store, generator, cfg.FetchTimeout)

	fmt.Printf("Building %d wrapped for %s...\n", cfg.Year, cfg.User)
	data, err := svc.Wrapped(ctx, cfg.User, cfg.Year)
	if err != nil {
		log.Fatalf("Failed to build wrapped summary: %v", err)
	}

	printSummary(data)

	if generator == nil {
		fmt.Println("\nAI insights unavailable. Set GEMINI_API_KEY to enable them.")
		return
	}

	record, err := svc.Insights(ctx, cfg.User, cfg.Year, data)
	if err != nil {
		// Insight failures never fail the whole run; the next invocation retries
		fmt.Printf("\nAI insights unavailable right now: %v\n", err)
		return
	}

	fmt.Println("\nAI INSIGHTS")
	fmt.Println(record.Insights)
	fmt.Printf("\n%d FORECAST\n", cfg.Year+1)
	fmt.Println(record.Forecast)
}

// printSummary prints a terminal-friendly rendition of the wrapped data
func printSummary(data *wrapped.WrappedData) {
	divider := strings.Repeat("=", 60)
	fmt.Println(divider)
	fmt.Printf("YOUR %d GARMIN WRAPPED\n", data.Year)
	fmt.Println(divider)

	if a := data.Activities; a != nil {
		fmt.Println("\nRUNNING")
		fmt.Printf("   Total Runs: %d\n", a.TotalRuns)
		fmt.Printf("   Distance: %.2f km\n", a.TotalDistanceKm)
		fmt.Printf("   Time: %.2f hours\n", a.TotalTimeHours)
		fmt.Printf("   Elevation: %.0f m\n", a.TotalElevationM)
		fmt.Printf("   Calories: %.0f\n", a.TotalCalories)
		if a.LongestRun != nil {
			fmt.Printf("   Longest Run: %.2f km\n", a.LongestRun.DistanceKm)
		}
		if a.FastestPace != nil {
			fmt.Printf("   Fastest Pace: %s/km\n", a.FastestPace.PaceFormatted)
		}
		fmt.Printf("   Avg Pace: %s/km\n", a.Averages.PaceFormatted)

		if len(a.Records) > 0 {
			fmt.Printf("\nPERSONAL RECORDS (%d)\n", data.Year)
			for _, key := range []string{"5k", "10k", "half_marathon", "marathon"} {
				rec, ok := a.Records[key]
				if !ok {
					continue
				}
				marker := ""
				if rec.AllTime {
					marker = "  ALL-TIME PR!"
				}
				fmt.Printf("   %s: %s (%s/km)%s\n", strings.ToUpper(strings.ReplaceAll(key, "_", " ")),
					rec.TimeFormatted, rec.PaceFormatted, marker)
			}
		}
	}

	if s := data.Sleep; s != nil {
		fmt.Println("\nSLEEP")
		fmt.Printf("   Avg Sleep: %.1f hours/night\n", s.AvgHours)
		fmt.Printf("   Avg Score: %.1f/100\n", s.AvgScore)
	}

	if s := data.Stress; s != nil {
		fmt.Println("\nSTRESS")
		fmt.Printf("   Avg Stress Level: %.1f/100\n", s.AvgLevel)
	}

	if h := data.HeartRate; h != nil {
		fmt.Println("\nHEART RATE")
		fmt.Printf("   Avg Resting HR: %.0f bpm\n", h.AvgRestingHR)
	}

	if b := data.BodyBattery; b != nil {
		fmt.Println("\nBODY BATTERY")
		fmt.Printf("   Avg Charged: %.0f points\n", b.AvgCharged)
		fmt.Printf("   Avg Drained: %.0f points\n", b.AvgDrained)
	}

	if s := data.Steps; s != nil {
		fmt.Println("\nSTEPS")
		fmt.Printf("   Total Steps: %d\n", s.TotalSteps)
		fmt.Printf("   Days Over 10k: %d\n", s.DaysOver10K)
	}

	if v := data.VO2Max; v != nil {
		fmt.Println("\nVO2 MAX")
		fmt.Printf("   Latest: %.1f ml/kg/min\n", v.Latest)
		if v.Improvement != 0 {
			fmt.Printf("   Yearly Change: %+.1f ml/kg/min (%+.1f%%)\n", v.Improvement, v.ImprovementPercent)
		}
	}

	if t := data.TrainingLoad; t != nil {
		fmt.Println("\nTRAINING LOAD")
		fmt.Printf("   Avg Acute Load: %.0f\n", t.AvgAcuteLoad)
		if t.MostCommonStatus != "" {
			fmt.Printf("   Most Common Status: %s\n", strings.ReplaceAll(t.MostCommonStatus, "_", " "))
		}
	}

	if len(data.Locations) > 0 {
		fmt.Println("\nPLACES")
		for _, p := range data.Locations {
			if p.Place != "" {
				fmt.Printf("   %s, %s\n", p.Place, p.Country)
			} else {
				fmt.Printf("   %s\n", p.Country)
			}
		}
	}

	if len(data.Manifest) > 0 {
		fmt.Printf("\nNot available this time: %s\n", strings.Join(data.Manifest, ", "))
	}

	fmt.Println("\n" + divider)
}
