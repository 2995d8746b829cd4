package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogPretty         bool          `mapstructure:"log_pretty" yaml:"log_pretty"`
	JWTSecret         string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer         string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience       string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL            time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`
	WSMessageLimit    int           `mapstructure:"ws_message_limit" yaml:"ws_message_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3003",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "alo.db",
		LogLevel:          "info",
		LogPretty:         true,
		JWTSecret:         "",
		JWTIssuer:         "alo-draft-app",
		JWTAudience:       "alo-clients",
		JWTTTL:            24 * time.Hour,
		WSMessageLimit:    240,
	}
}
