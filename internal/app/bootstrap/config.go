package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the portal backend.
// It merges file defaults and environment overrides to support both local
// and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	KafkaBrokers       []string
	KafkaConsumerGroup string
	WorkerPollInterval time.Duration

	SessionTokenSecret    string
	AllowEphemeralSecret  bool
	SessionCookieName     string
	SSOCookieName         string
	CookieDomain          string
	SecureCookies         bool
	SessionTTL            time.Duration
	TrackerTTL            time.Duration
	ProfileTTL            time.Duration
	ProfileFailureTTL     time.Duration
	ReferenceDataTTL      time.Duration
	BackendAttempts       int
	BackendRetryDelay     time.Duration
	SubmissionJobAttempts int

	LoginRedirectURL  string
	LogoutRedirectURL string

	SAMLIdPSSOURL   string
	SAMLIdPSLOURL   string
	SAMLIdPIssuer   string
	SAMLSPIssuer    string
	SAMLCallbackURL string
	SAMLIdPCertFile string
	SAMLSPCertFile  string
	SAMLSPKeyFile   string

	BenefitsStationID     string
	BenefitsApplicationID string
	BenefitsActingUser    string

	MaxDBConns int32
}

// configFile mirrors the YAML schema used by configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	SAML struct {
		IdPSSOURL   string `yaml:"idp_sso_url"`
		IdPSLOURL   string `yaml:"idp_slo_url"`
		IdPIssuer   string `yaml:"idp_issuer"`
		SPIssuer    string `yaml:"sp_issuer"`
		CallbackURL string `yaml:"callback_url"`
		IdPCertFile string `yaml:"idp_cert_file"`
		SPCertFile  string `yaml:"sp_cert_file"`
		SPKeyFile   string `yaml:"sp_key_file"`
	} `yaml:"saml"`
	Redirects struct {
		Login  string `yaml:"login"`
		Logout string `yaml:"logout"`
	} `yaml:"redirects"`
	Benefits struct {
		StationID     string `yaml:"station_id"`
		ApplicationID string `yaml:"application_id"`
		ActingUser    string `yaml:"acting_user"`
	} `yaml:"benefits"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:             "benefits-portal",
		HTTPPort:              8080,
		GRPCPort:              9090,
		KafkaConsumerGroup:    "benefits-portal-worker",
		WorkerPollInterval:    2 * time.Second,
		AllowEphemeralSecret:  true,
		SessionCookieName:     "api_session",
		SSOCookieName:         "portal_sso",
		SecureCookies:         true,
		SessionTTL:            30 * time.Minute,
		TrackerTTL:            10 * time.Minute,
		ProfileTTL:            24 * time.Hour,
		ProfileFailureTTL:     30 * time.Minute,
		ReferenceDataTTL:      24 * time.Hour,
		BackendAttempts:       3,
		BackendRetryDelay:     time.Second,
		SubmissionJobAttempts: 5,
		LoginRedirectURL:      "http://localhost:3000/auth/login/callback",
		LogoutRedirectURL:     "http://localhost:3000/logout",
		MaxDBConns:            20,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.SAML.IdPSSOURL != "" {
			cfg.SAMLIdPSSOURL = f.SAML.IdPSSOURL
		}
		if f.SAML.IdPSLOURL != "" {
			cfg.SAMLIdPSLOURL = f.SAML.IdPSLOURL
		}
		if f.SAML.IdPIssuer != "" {
			cfg.SAMLIdPIssuer = f.SAML.IdPIssuer
		}
		if f.SAML.SPIssuer != "" {
			cfg.SAMLSPIssuer = f.SAML.SPIssuer
		}
		if f.SAML.CallbackURL != "" {
			cfg.SAMLCallbackURL = f.SAML.CallbackURL
		}
		if f.SAML.IdPCertFile != "" {
			cfg.SAMLIdPCertFile = f.SAML.IdPCertFile
		}
		if f.SAML.SPCertFile != "" {
			cfg.SAMLSPCertFile = f.SAML.SPCertFile
		}
		if f.SAML.SPKeyFile != "" {
			cfg.SAMLSPKeyFile = f.SAML.SPKeyFile
		}
		if f.Redirects.Login != "" {
			cfg.LoginRedirectURL = f.Redirects.Login
		}
		if f.Redirects.Logout != "" {
			cfg.LogoutRedirectURL = f.Redirects.Logout
		}
		if f.Benefits.StationID != "" {
			cfg.BenefitsStationID = f.Benefits.StationID
		}
		if f.Benefits.ApplicationID != "" {
			cfg.BenefitsApplicationID = f.Benefits.ApplicationID
		}
		if f.Benefits.ActingUser != "" {
			cfg.BenefitsActingUser = f.Benefits.ActingUser
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.SessionTokenSecret = envOrDefault("SESSION_TOKEN_SECRET", cfg.SessionTokenSecret)
	cfg.AllowEphemeralSecret = envBool("SESSION_SECRET_ALLOW_EPHEMERAL", cfg.AllowEphemeralSecret)
	cfg.SessionCookieName = envOrDefault("SESSION_COOKIE_NAME", cfg.SessionCookieName)
	cfg.SSOCookieName = envOrDefault("SSO_COOKIE_NAME", cfg.SSOCookieName)
	cfg.CookieDomain = envOrDefault("COOKIE_DOMAIN", cfg.CookieDomain)
	cfg.SecureCookies = envBool("SECURE_COOKIES", cfg.SecureCookies)
	cfg.LoginRedirectURL = envOrDefault("LOGIN_REDIRECT_URL", cfg.LoginRedirectURL)
	cfg.LogoutRedirectURL = envOrDefault("LOGOUT_REDIRECT_URL", cfg.LogoutRedirectURL)
	cfg.SAMLIdPSSOURL = envOrDefault("SAML_IDP_SSO_URL", cfg.SAMLIdPSSOURL)
	cfg.SAMLIdPSLOURL = envOrDefault("SAML_IDP_SLO_URL", cfg.SAMLIdPSLOURL)
	cfg.SAMLIdPIssuer = envOrDefault("SAML_IDP_ISSUER", cfg.SAMLIdPIssuer)
	cfg.SAMLSPIssuer = envOrDefault("SAML_SP_ISSUER", cfg.SAMLSPIssuer)
	cfg.SAMLCallbackURL = envOrDefault("SAML_CALLBACK_URL", cfg.SAMLCallbackURL)
	cfg.SAMLIdPCertFile = envOrDefault("SAML_IDP_CERT_FILE", cfg.SAMLIdPCertFile)
	cfg.SAMLSPCertFile = envOrDefault("SAML_SP_CERT_FILE", cfg.SAMLSPCertFile)
	cfg.SAMLSPKeyFile = envOrDefault("SAML_SP_KEY_FILE", cfg.SAMLSPKeyFile)
	cfg.BenefitsStationID = envOrDefault("BENEFITS_STATION_ID", cfg.BenefitsStationID)
	cfg.BenefitsApplicationID = envOrDefault("BENEFITS_APPLICATION_ID", cfg.BenefitsApplicationID)
	cfg.BenefitsActingUser = envOrDefault("BENEFITS_ACTING_USER", cfg.BenefitsActingUser)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.BackendAttempts = envInt("BACKEND_ATTEMPTS", cfg.BackendAttempts)
	cfg.SubmissionJobAttempts = envInt("SUBMISSION_JOB_ATTEMPTS", cfg.SubmissionJobAttempts)

	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_MINUTES", int(cfg.SessionTTL.Minutes()))) * time.Minute
	cfg.TrackerTTL = time.Duration(envInt("TRACKER_TTL_MINUTES", int(cfg.TrackerTTL.Minutes()))) * time.Minute
	cfg.ProfileTTL = time.Duration(envInt("PROFILE_TTL_MINUTES", int(cfg.ProfileTTL.Minutes()))) * time.Minute
	cfg.ProfileFailureTTL = time.Duration(envInt("PROFILE_FAILURE_TTL_MINUTES", int(cfg.ProfileFailureTTL.Minutes()))) * time.Minute
	cfg.ReferenceDataTTL = time.Duration(envInt("REFERENCE_DATA_TTL_MINUTES", int(cfg.ReferenceDataTTL.Minutes()))) * time.Minute
	cfg.BackendRetryDelay = time.Duration(envInt("BACKEND_RETRY_DELAY_SECONDS", int(cfg.BackendRetryDelay.Seconds()))) * time.Second
	cfg.WorkerPollInterval = time.Duration(envInt("WORKER_POLL_SECONDS", int(cfg.WorkerPollInterval.Seconds()))) * time.Second

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.SessionTokenSecret == "" && !cfg.AllowEphemeralSecret {
		return Config{}, fmt.Errorf("missing SESSION_TOKEN_SECRET")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
