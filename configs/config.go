package configs

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBSource  string
	Port      string
	JWTSecret string
	JWTTTL    time.Duration

	GeminiAPIKey string
	GeminiModel  string

	GeocodeURL       string
	GeocodeTimeout   time.Duration
	GeocodeUserAgent string

	TimeZone string
	LogLevel string

	AdminUsername string
	AdminPassword string
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() *Config {
	// a missing .env is fine, the environment may carry everything
	_ = godotenv.Load()

	return &Config{
		DBSource:         getEnv("DB_SOURCE", "helppro.db"),
		Port:             getEnv("PORT", "8000"),
		JWTSecret:        getEnv("JWT_SECRET", "changeme"),
		JWTTTL:           time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeocodeURL:       getEnv("GEOCODE_URL", "https://nominatim.openstreetmap.org/reverse"),
		GeocodeTimeout:   getEnvDuration("GEOCODE_TIMEOUT", 5*time.Second),
		GeocodeUserAgent: getEnv("GEOCODE_USER_AGENT", "help-pro/1.0"),
		TimeZone:         getEnv("TZ_NAME", "America/Sao_Paulo"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		AdminUsername:    os.Getenv("ADMIN_USERNAME"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
	}
}

// Zone is the device time zone used for dates and stamps. Unknown names fall back to local time.
func (c *Config) Zone() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
