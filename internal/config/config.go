package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by POWDERPLAN_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("POWDERPLAN_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// ModelProvider returns the configured chat model provider.
// Valid values: openai, mock. Defaults to "openai".
func ModelProvider() string {
	p := os.Getenv("MODEL_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// ModelAPIKey returns the API key for the configured model provider.
func ModelAPIKey() string {
	switch ModelProvider() {
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// SessionBackend selects the session store implementation.
// Valid values: memory, postgres. Defaults to "memory".
func SessionBackend() string {
	b := os.Getenv("SESSION_BACKEND")
	if b == "" {
		return "memory"
	}
	return b
}

// RoundLimit is the maximum number of model rounds per turn. The common
// case is two: one opening round plus one follow-up carrying capability
// results. Defaults to 2; never below 1.
func RoundLimit() int {
	n, err := strconv.Atoi(os.Getenv("ROUND_LIMIT"))
	if err != nil || n < 1 {
		return 2
	}
	return n
}

// HeuristicBaseConfidence is the heuristic layer's confidence when no
// suspicious pattern is found. Defaults to 0.7.
func HeuristicBaseConfidence() float64 {
	c, err := strconv.ParseFloat(os.Getenv("HEURISTIC_BASE_CONFIDENCE"), 64)
	if err != nil || c < 0 || c > 1 {
		return 0.7
	}
	return c
}

// HeuristicWeight is the heuristic layer's share of the aggregated
// confidence in two-layer mode. Defaults to 0.4.
func HeuristicWeight() float64 {
	w, err := strconv.ParseFloat(os.Getenv("HEURISTIC_WEIGHT"), 64)
	if err != nil || w <= 0 || w >= 1 {
		return 0.4
	}
	return w
}

// JudgeWeight is the judge layer's share of the aggregated confidence in
// two-layer mode. Defaults to 0.6.
func JudgeWeight() float64 {
	w, err := strconv.ParseFloat(os.Getenv("JUDGE_WEIGHT"), 64)
	if err != nil || w <= 0 || w >= 1 {
		return 0.6
	}
	return w
}

// DetectionMode selects the detection engine layout.
// Valid values: two (heuristic + judge), three (heuristic + quick judge +
// conditionally triggered detailed judge). Defaults to "two".
func DetectionMode() string {
	m := os.Getenv("DETECTION_MODE")
	if m == "" {
		return "two"
	}
	return m
}

// SystemPromptPath optionally points at a file overriding the built-in
// system instructions. Prompts are versionable configuration, not code.
func SystemPromptPath() string {
	return os.Getenv("SYSTEM_PROMPT_PATH")
}

// JudgePromptPath optionally points at a file overriding the built-in
// judge prompt template.
func JudgePromptPath() string {
	return os.Getenv("JUDGE_PROMPT_PATH")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
