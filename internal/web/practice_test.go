package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func TestSessionRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  sessionRequest
		want string
	}{
		{name: "normal session", req: sessionRequest{DurationMinutes: 30}, want: ""},
		{name: "zero duration quick record", req: sessionRequest{DurationMinutes: 0, IsQuickRecord: true}, want: ""},
		{name: "negative duration", req: sessionRequest{DurationMinutes: -5}, want: "duration_minutes must not be negative"},
		{name: "rating in range", req: sessionRequest{DurationMinutes: 30, Rating: intPtr(5)}, want: ""},
		{name: "rating too high", req: sessionRequest{DurationMinutes: 30, Rating: intPtr(6)}, want: "rating must be between 1 and 5"},
		{name: "rating too low", req: sessionRequest{DurationMinutes: 30, Rating: intPtr(0)}, want: "rating must be between 1 and 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.validate())
		})
	}
}

func TestSongRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  songRequest
		want string
	}{
		{name: "valid", req: songRequest{Title: "Autumn Leaves", Difficulty: 3, Status: "practicing"}, want: ""},
		{name: "missing title", req: songRequest{Difficulty: 3, Status: "practicing"}, want: "title is required"},
		{name: "difficulty out of range", req: songRequest{Title: "x", Difficulty: 6, Status: "practicing"}, want: "difficulty must be between 1 and 5"},
		{name: "unknown status", req: songRequest{Title: "x", Difficulty: 3, Status: "paused"}, want: "invalid status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.validate())
		})
	}
}
