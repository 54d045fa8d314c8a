package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything the server reads from the environment.
// Secrets are held in memory only and must never be logged.
type Config struct {
	Port            string
	AcceptedSecrets []string
	GeminiAPIKey    string
	GeminiModel     string
	GitHubToken     string
	GitHubUsername  string
	AllowOrigin     string
}

// Load reads a .env file if present, then the process environment.
// A missing .env is not an error; containers usually inject env directly.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("PORT", "8080"),
		AcceptedSecrets: ParseSecrets(firstEnv("TDS_ACCEPTED_SECRETS", "TDS_SECRET")),
		GeminiAPIKey:    firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GitHubToken:     os.Getenv("GITHUB_TOKEN"),
		GitHubUsername:  os.Getenv("GITHUB_USERNAME"),
		AllowOrigin:     getEnv("TDS_ALLOW_ORIGINS", "*"),
	}
}

// ParseSecrets splits a comma-separated secret list, dropping blanks.
// An empty result means the server rejects every request (fail closed).
func ParseSecrets(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
