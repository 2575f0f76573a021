package service

import (
	"testing"

	"github.com/powderplan/powderplan/internal/domain"
)

func TestUpdateTripContext(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.TripContext
	}{
		{
			name: "ski level and resort",
			text: "I'm an intermediate skier thinking about Zermatt",
			want: domain.TripContext{SkiLevel: "intermediate", LastResort: "zermatt", LastCountry: ""},
		},
		{
			name: "expert maps to advanced",
			text: "We're expert skiers",
			want: domain.TripContext{SkiLevel: "advanced"},
		},
		{
			name: "budget with dollar amount",
			text: "My budget is around $3000 total",
			want: domain.TripContext{Budget: "budget is around $3000"},
		},
		{
			name: "travel month",
			text: "We want to go in February",
			want: domain.TripContext{TravelDates: "in february"},
		},
		{
			name: "country mention",
			text: "Thinking about Switzerland or Austria",
			want: domain.TripContext{LastCountry: "switzerland"},
		},
		{
			name: "no signals",
			text: "What should I pack?",
			want: domain.TripContext{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tc domain.TripContext
			updateTripContext(&tc, tt.text)
			if tc != tt.want {
				t.Errorf("context = %+v, want %+v", tc, tt.want)
			}
		})
	}
}

func TestUpdateTripContextAccumulates(t *testing.T) {
	var tc domain.TripContext
	updateTripContext(&tc, "I'm a beginner")
	updateTripContext(&tc, "How about Chamonix in January?")

	if tc.SkiLevel != "beginner" {
		t.Errorf("ski level = %q, later messages should not erase it", tc.SkiLevel)
	}
	if tc.LastResort != "chamonix" || tc.TravelDates != "in january" {
		t.Errorf("context = %+v", tc)
	}
}
