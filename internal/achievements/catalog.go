// Package achievements awards one-time badges from a user's aggregate
// activity. The evaluator is stateless and safe to re-run: grants go
// through an atomic get-or-create keyed by (user, badge).
package achievements

import "github.com/zanon-app/zanon/internal/db"

// Badge slugs. These key the seeded catalog and the evaluator rules.
const (
	SlugFirstPractice = "first_practice"
	SlugStreak7       = "streak_7"
	SlugStreak30      = "streak_30"
	SlugPractice100h  = "practice_100h"
	SlugFirstLive     = "first_live"
	SlugLive10        = "live_10"
	SlugFirstCompose  = "first_compose"
	SlugComposeDone   = "compose_done"
	SlugAllRounder    = "all_rounder"
)

// Rule thresholds.
const (
	streakWeek          = 7
	streakMonth         = 30
	practiceMinutes100h = 6000
	liveMaster          = 10
)

// Catalog is the seed data for the badge catalog. Seeded by the
// seed-achievements subcommand; read-only at runtime.
var Catalog = []db.AchievementDefinition{
	{Slug: SlugFirstPractice, Name: "First Steps", Description: "Logged your first practice session", Category: "practice", IconName: "footsteps", SortOrder: 1},
	{Slug: SlugStreak7, Name: "One Week Straight", Description: "Practiced 7 days in a row", Category: "practice", IconName: "fire", SortOrder: 2},
	{Slug: SlugStreak30, Name: "One Month Straight", Description: "Practiced 30 days in a row", Category: "practice", IconName: "flame", SortOrder: 3},
	{Slug: SlugPractice100h, Name: "100 Hour Master", Description: "Logged 100 hours of practice in total", Category: "practice", IconName: "clock", SortOrder: 4},
	{Slug: SlugFirstLive, Name: "First Live", Description: "Logged your first live show", Category: "live", IconName: "ticket", SortOrder: 5},
	{Slug: SlugLive10, Name: "Live Master", Description: "Attended 10 or more live shows", Category: "live", IconName: "microphone", SortOrder: 6},
	{Slug: SlugFirstCompose, Name: "Composer Debut", Description: "Created your first composition project", Category: "compose", IconName: "pencil", SortOrder: 7},
	{Slug: SlugComposeDone, Name: "Finished Song", Description: "Completed a song for the first time", Category: "compose", IconName: "star", SortOrder: 8},
	{Slug: SlugAllRounder, Name: "All-Rounder", Description: "Logged practice, live and composition activity", Category: "general", IconName: "trophy", SortOrder: 9},
}
