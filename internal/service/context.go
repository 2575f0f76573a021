package service

import (
	"regexp"
	"strings"

	"github.com/powderplan/powderplan/internal/domain"
)

// Trip-context extraction. Scrapes advisory preferences from user messages
// so downstream consumers see what the conversation has established. This
// never feeds detection scoring.

var (
	budgetPattern = regexp.MustCompile(`(?i)budget.*?(\$\d+|\d+\s*(?:dollar|euro|pound))`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)in\s+(january|february|march|april|may|june|july|august|september|october|november|december)`),
		regexp.MustCompile(`(?i)next\s+(week|month|year)`),
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`),
	}

	knownResorts = []string{
		"aspen", "vail", "whistler", "chamonix", "zermatt", "st. moritz",
		"cortina", "kitzbuhel", "verbier", "courchevel", "val d'isere",
		"st. anton", "davos", "park city", "breckenridge", "niseko",
	}

	knownCountries = []string{
		"switzerland", "france", "austria", "italy", "usa", "canada",
		"japan", "norway", "sweden",
	}
)

func updateTripContext(tc *domain.TripContext, userText string) {
	content := strings.ToLower(userText)

	switch {
	case strings.Contains(content, "beginner"):
		tc.SkiLevel = "beginner"
	case strings.Contains(content, "intermediate"):
		tc.SkiLevel = "intermediate"
	case strings.Contains(content, "advanced"), strings.Contains(content, "expert"):
		tc.SkiLevel = "advanced"
	}

	if m := budgetPattern.FindString(content); m != "" {
		tc.Budget = m
	}

	for _, p := range datePatterns {
		if m := p.FindString(content); m != "" {
			tc.TravelDates = m
			break
		}
	}

	for _, resort := range knownResorts {
		if strings.Contains(content, resort) {
			tc.LastResort = resort
			break
		}
	}

	for _, country := range knownCountries {
		if strings.Contains(content, country) {
			tc.LastCountry = country
			break
		}
	}
}
