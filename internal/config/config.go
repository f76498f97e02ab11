package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"feargreed-bot/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DefaultReportSchedule = "0 9,21 * * *"
	DefaultEnvFile        = ".env"
	DefaultSSHHostKeyPath = ".ssh/id_ed25519"
)

var ErrMissingToken = errors.New("TELEGRAM_BOT_TOKEN not found in environment or .env file")

type Config struct {
	TelegramBotToken string
	TelegramChatID   int64

	ReportSchedule  string
	ReportTimezone  string
	HTTPTimeoutSecs int

	RedisURL    string
	DatabaseURL string

	HTTPPort int
	APIKey   string

	SSHPort                int
	SSHHostKeyPath         string
	SSHAllowedFingerprints []string

	MCPTransport string

	TracingEnabled   bool
	TracingEndpoint  string
	TraceSampleRatio float64

	BreakerMaxFailures  int
	BreakerCooldownSecs int
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		APIKey:           strings.TrimSpace(os.Getenv("API_KEY")),
		SSHHostKeyPath:   strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH")),
		TracingEndpoint:  strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, last-known prices will not survive restarts")
	}
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, /subscribe is disabled")
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Warn().Str("value", v).Msg("invalid TELEGRAM_CHAT_ID, ignoring")
		}
	}

	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = DefaultSSHHostKeyPath
	}

	cfg.ReportSchedule = strings.TrimSpace(os.Getenv("REPORT_SCHEDULE"))
	if cfg.ReportSchedule == "" {
		cfg.ReportSchedule = DefaultReportSchedule
	}

	cfg.ReportTimezone = strings.TrimSpace(os.Getenv("REPORT_TIMEZONE"))
	if cfg.ReportTimezone == "" {
		cfg.ReportTimezone = "UTC"
	}

	cfg.HTTPTimeoutSecs = positiveInt("HTTP_TIMEOUT_SECS", 15)
	cfg.HTTPPort = positiveInt("HTTP_PORT", 8080)
	cfg.SSHPort = positiveInt("SSH_PORT", 23234)
	cfg.BreakerMaxFailures = positiveInt("BREAKER_MAX_FAILURES", 5)
	cfg.BreakerCooldownSecs = positiveInt("BREAKER_COOLDOWN_SECS", 60)

	for _, fp := range strings.Split(os.Getenv("SSH_ALLOWED_FINGERPRINTS"), ",") {
		if fp = strings.TrimSpace(fp); fp != "" {
			cfg.SSHAllowedFingerprints = append(cfg.SSHAllowedFingerprints, fp)
		}
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" {
		log.Warn().Str("transport", cfg.MCPTransport).Msg("unsupported MCP_TRANSPORT, defaulting to stdio")
		cfg.MCPTransport = "stdio"
	}

	cfg.TracingEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "true")
	cfg.TraceSampleRatio = 1
	if v := strings.TrimSpace(os.Getenv("TRACE_SAMPLE_RATIO")); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil && r > 0 && r <= 1 {
			cfg.TraceSampleRatio = r
		} else {
			log.Warn().Str("value", v).Msg("TRACE_SAMPLE_RATIO must be in (0, 1], sampling everything")
		}
	}

	return cfg
}

func (c *Config) TracingOptions(version string) tracing.Options {
	return tracing.Options{
		Enabled:     c.TracingEnabled,
		Endpoint:    c.TracingEndpoint,
		SampleRatio: c.TraceSampleRatio,
		Version:     version,
	}
}

func positiveInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("invalid value, using default")
		return def
	}
	return n
}

// ResolveTelegramToken prefers the configured token (Config.TelegramBotToken,
// read from the environment) and falls back to the TELEGRAM_BOT_TOKEN entry of
// envFile.
func ResolveTelegramToken(configured, envFile string) (string, error) {
	if token := strings.TrimSpace(configured); token != "" {
		return token, nil
	}
	values, err := godotenv.Read(envFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrMissingToken
		}
		return "", err
	}
	token := strings.Trim(strings.TrimSpace(values["TELEGRAM_BOT_TOKEN"]), `"'`)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
