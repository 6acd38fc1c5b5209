package advice

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// systemPrompt fixes the model's persona for advice generation.
const systemPrompt = `You are an experienced, encouraging music practice coach.
You are given a factual summary of one player's last seven days of musical
activity. Write 3 to 5 short sentences of concrete, actionable practice advice
based only on those facts. Acknowledge effort, point out one thing to improve,
and suggest one specific exercise for the coming week. Do not invent facts that
are not in the summary. Plain text only, no markdown.`

// fallbackAdvice is served when generation fails and no cache exists.
const fallbackAdvice = "Keep showing up. Even 15 focused minutes a day builds more skill than an occasional marathon session. Log your next practice and check back here for personalized advice."

// facts is the aggregate activity summary fed to the model.
type facts struct {
	PeriodStart  time.Time
	PeriodEnd    time.Time
	SessionCount int
	TotalMinutes int
	DailyMinutes map[time.Time]int
	Streak       int
	Songs        []string
	LiveCount    int
	ComposeCount int
}

// buildPrompt renders the facts as a bullet list for the user turn.
func buildPrompt(f facts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Activity from %s to %s:\n",
		f.PeriodStart.Format("2006-01-02"), f.PeriodEnd.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Practice sessions: %d\n", f.SessionCount)
	fmt.Fprintf(&b, "- Total practice time: %d minutes\n", f.TotalMinutes)
	fmt.Fprintf(&b, "- Current daily streak: %d days\n", f.Streak)

	if len(f.DailyMinutes) > 0 {
		days := make([]time.Time, 0, len(f.DailyMinutes))
		for d := range f.DailyMinutes {
			days = append(days, d)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

		parts := make([]string, 0, len(days))
		for _, d := range days {
			parts = append(parts, fmt.Sprintf("%s: %dmin", d.Format("Mon"), f.DailyMinutes[d]))
		}
		fmt.Fprintf(&b, "- Daily breakdown: %s\n", strings.Join(parts, ", "))
	}

	if len(f.Songs) > 0 {
		fmt.Fprintf(&b, "- Songs being practiced: %s\n", strings.Join(f.Songs, ", "))
	}
	fmt.Fprintf(&b, "- Live shows attended: %d\n", f.LiveCount)
	fmt.Fprintf(&b, "- Composition projects worked on: %d\n", f.ComposeCount)
	return b.String()
}
