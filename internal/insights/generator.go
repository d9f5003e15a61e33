// Package insights generates the natural-language year-in-review texts from
// a wrapped summary via the Gemini API.
package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"

	"garminwrapped/internal/ratelimit"
	"garminwrapped/internal/wrapped"
)

// Record is the cached generation result for one user-year
type Record struct {
	User        string    `json:"user"`
	Year        int       `json:"year"`
	Insights    string    `json:"insights"`
	Forecast    string    `json:"forecast"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Generator produces the insight and forecast texts for a wrapped summary
type Generator interface {
	Generate(ctx context.Context, data *wrapped.WrappedData) (insights, forecast string, err error)
}

// geminiRequest is the generateContent request body
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the subset of the generateContent response we consume
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiGenerator calls the Gemini generateContent endpoint
type GeminiGenerator struct {
	client  *resty.Client
	apiKey  string
	model   string
	limiter *ratelimit.Limiter
}

// NewGeminiGenerator creates a generator bound to one model and API key
func NewGeminiGenerator(apiKey, model, baseURL string) *GeminiGenerator {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &GeminiGenerator{
		client:  client,
		apiKey:  apiKey,
		model:   model,
		limiter: ratelimit.GetLimiter(),
	}
}

// Generate produces the insight text and, from it, the next-year forecast.
// One attempt per call; the caller decides whether a failure is retried on a
// later request.
func (g *GeminiGenerator) Generate(ctx context.Context, data *wrapped.WrappedData) (string, string, error) {
	insightText, err := g.generateText(ctx, buildInsightsPrompt(data))
	if err != nil {
		return "", "", fmt.Errorf("insight generation failed: %w", err)
	}

	forecastText, err := g.generateText(ctx, buildForecastPrompt(data, insightText))
	if err != nil {
		return "", "", fmt.Errorf("forecast generation failed: %w", err)
	}

	return insightText, forecastText, nil
}

// generateText performs one generateContent call
func (g *GeminiGenerator) generateText(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx, ratelimit.APIGemini); err != nil {
		return "", err
	}

	var result geminiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(geminiRequest{
			Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		}).
		SetResult(&result).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))

	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	if !resp.IsSuccess() {
		return "", fmt.Errorf("gemini API returned status %d", resp.StatusCode())
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no text in gemini response")
	}

	text := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("empty text in gemini response")
	}
	return text, nil
}

// buildInsightsPrompt summarizes the year's numbers into the analysis prompt
func buildInsightsPrompt(data *wrapped.WrappedData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze this runner's %d data. Talk directly to the user. "+
		"Provide up to 5 bullet points (max 150 words total). "+
		"Use markdown **bold** for key metrics.\n\nData: ", data.Year)

	if a := data.Activities; a != nil {
		fmt.Fprintf(&b, "%d runs, %.0fkm, %s avg pace, %.1fh total",
			a.TotalRuns, a.TotalDistanceKm, a.Averages.PaceFormatted, a.TotalTimeHours)
		if a.TotalRuns > 0 {
			fmt.Fprintf(&b, ", %.1fkm/run avg", a.TotalDistanceKm/float64(a.TotalRuns))
		}
	} else {
		b.WriteString("no activity data")
	}
	if v := data.VO2Max; v != nil {
		fmt.Fprintf(&b, ", VO2 %.1f", v.Latest)
	}
	if s := data.Sleep; s != nil {
		fmt.Fprintf(&b, ", sleep %.1fh", s.AvgHours)
	}
	if s := data.Stress; s != nil {
		fmt.Fprintf(&b, ", stress %.0f/100", s.AvgLevel)
	}

	b.WriteString("\n\nFormat:\n" +
		"- [Insight with **number** highlighted]\n" +
		"- [Insight with **metric** highlighted]\n" +
		"- [Insight with **stat** highlighted]\n" +
		"- [Insight about the percentile of fitness or running level, if applicable]\n\n" +
		"Be concise, analytical, data-focused.")

	return b.String()
}

// buildForecastPrompt turns the year's numbers and the generated insights
// into the next-year goals prompt
func buildForecastPrompt(data *wrapped.WrappedData, insightText string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create up to 5 specific %d goals (max 150 words total). "+
		"Talk directly to the user. Use markdown **bold** for target numbers.\n\n%d: ",
		data.Year+1, data.Year)

	if a := data.Activities; a != nil {
		fmt.Fprintf(&b, "%d runs, %.0fkm, %s pace",
			a.TotalRuns, a.TotalDistanceKm, a.Averages.PaceFormatted)
		if rec, ok := a.Records["5k"]; ok {
			fmt.Fprintf(&b, ", 5K %s", rec.PaceFormatted)
		}
		if rec, ok := a.Records["10k"]; ok {
			fmt.Fprintf(&b, ", 10K %s", rec.PaceFormatted)
		}
	} else {
		b.WriteString("no activity data")
	}
	if v := data.VO2Max; v != nil {
		fmt.Fprintf(&b, ", VO2 %.1f", v.Latest)
	}
	if s := data.Sleep; s != nil {
		fmt.Fprintf(&b, ", sleep %.1fh", s.AvgHours)
	}

	fmt.Fprintf(&b, "\n\nThese were the insights from %d that you generated:\n%s\n\n", data.Year, insightText)

	b.WriteString("Format:\n" +
		"- [Volume goal with **target number** (always per month or per week)]\n" +
		"- [Pace goal with **target time** (always for a focused distance)]\n" +
		"- [Improvement training goal with **specific metric**]\n" +
		"- [Health goal with **specific metric** (sleep hours, HR, etc.)]\n" +
		"- [Other...]\n\n" +
		"Calculate 10-20% improvements. Be specific.")

	return b.String()
}
