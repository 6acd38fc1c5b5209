package activity

import "time"

// WindowDays is the length of the heatmap window, ending today.
const WindowDays = 365

// HeatmapDay is one cell of the yearly activity grid.
type HeatmapDay struct {
	Date            time.Time `json:"date"`
	Level           int       `json:"level"`
	PracticeMinutes int       `json:"practice_minutes"`
	LiveCount       int       `json:"live_count"`
	ComposeCount    int       `json:"compose_count"`
}

// Heatmap is the full yearly grid plus the number of active days.
type Heatmap struct {
	Days       []HeatmapDay `json:"days"`
	ActiveDays int          `json:"active_days"`
}

// DayLevel maps one day's activity to a discrete intensity in 0..4.
// Practice contributes up to 3 points (one per 15 minutes, capped),
// each gig counts double, each touched project counts once.
func DayLevel(practiceMinutes, liveCount, composeCount int) int {
	score := min(practiceMinutes/15, 3) + 2*liveCount + composeCount
	switch {
	case score >= 5:
		return 4
	case score >= 3:
		return 3
	case score >= 2:
		return 2
	case score >= 1:
		return 1
	default:
		return 0
	}
}

// BuildHeatmap produces the 365-day grid for the window ending today.
// Input maps are keyed by calendar day at midnight UTC (see Day); days
// absent from every map come out at level 0. The result always has
// exactly WindowDays entries spanning [today-364, today] in order.
func BuildHeatmap(today time.Time, practiceMinutes, liveCounts, composeCounts map[time.Time]int) Heatmap {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(WindowDays - 1))

	hm := Heatmap{Days: make([]HeatmapDay, 0, WindowDays)}
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		day := HeatmapDay{
			Date:            d,
			PracticeMinutes: practiceMinutes[d],
			LiveCount:       liveCounts[d],
			ComposeCount:    composeCounts[d],
		}
		day.Level = DayLevel(day.PracticeMinutes, day.LiveCount, day.ComposeCount)
		if day.Level > 0 {
			hm.ActiveDays++
		}
		hm.Days = append(hm.Days, day)
	}
	return hm
}
