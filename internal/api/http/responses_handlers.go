package http

import (
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/formforge/formforge/internal/form"
)

type dayCount struct {
	Date      string `json:"date"`
	Responses int    `json:"responses"`
}

type statistics struct {
	TotalResponses    int            `json:"totalResponses"`
	AverageScore      float64        `json:"averageScore"`
	CompletionRate    float64        `json:"completionRate"`
	ChartData         []dayCount     `json:"chartData"`
	ScoreDistribution map[string]int `json:"scoreDistribution"`
}

// ListResponsesHandler serves a form's responses plus aggregate statistics
// to the form owner.
func ListResponsesHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := store.GetForm(r.Context(), chi.URLParam(r, "formID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !isOwner(r.Context(), f) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		responses, err := store.ListResponses(r.Context(), f.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if responses == nil {
			responses = []form.Response{}
		}
		sort.Slice(responses, func(i, j int) bool {
			return responses[i].SubmittedAt > responses[j].SubmittedAt
		})
		writeJSON(w, http.StatusOK, map[string]any{
			"responses":  responses,
			"form":       f,
			"statistics": buildStatistics(f, responses),
		})
	}
}

func buildStatistics(f form.Form, responses []form.Response) statistics {
	stats := statistics{
		TotalResponses:    len(responses),
		ChartData:         []dayCount{},
		ScoreDistribution: map[string]int{"0-20": 0, "21-40": 0, "41-60": 0, "61-80": 0, "81-100": 0},
	}

	byDay := map[string]int{}
	completed := 0
	scoreSum := 0
	for _, resp := range responses {
		scoreSum += resp.Score.Percentage
		if len(resp.Answers) == len(f.Questions) {
			completed++
		}
		day := time.Unix(resp.SubmittedAt, 0).UTC().Format("2006-01-02")
		byDay[day]++

		switch p := resp.Score.Percentage; {
		case p <= 20:
			stats.ScoreDistribution["0-20"]++
		case p <= 40:
			stats.ScoreDistribution["21-40"]++
		case p <= 60:
			stats.ScoreDistribution["41-60"]++
		case p <= 80:
			stats.ScoreDistribution["61-80"]++
		default:
			stats.ScoreDistribution["81-100"]++
		}
	}

	if len(responses) > 0 {
		stats.AverageScore = round2(float64(scoreSum) / float64(len(responses)))
		stats.CompletionRate = round2(100 * float64(completed) / float64(len(responses)))
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		stats.ChartData = append(stats.ChartData, dayCount{Date: d, Responses: byDay[d]})
	}
	return stats
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
