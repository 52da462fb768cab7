package config

import "time"

// Config holds the main consultant configuration
type Config struct {
	API           APIConfig           `toml:"api"`
	Auth          AuthConfig          `toml:"auth"`
	Stream        StreamConfig        `toml:"stream"`
	Poll          PollConfig          `toml:"poll"`
	Upload        UploadConfig        `toml:"upload"`
	Notifications NotificationsConfig `toml:"notifications"`
	Logging       LoggingConfig       `toml:"logging"`
	UI            UIConfig            `toml:"ui"`
}

// APIConfig points at the two backend services
type APIConfig struct {
	AdminURL string `toml:"admin_url"`
	AgentURL string `toml:"agent_url"`
	Timeout  string `toml:"timeout"`
}

type AuthConfig struct {
	CredentialsFile string `toml:"credentials_file"`
	// Token overrides the credentials file when set. Usually supplied via CONSULTANT_TOKEN.
	Token string `toml:"token,omitempty"`
}

type StreamConfig struct {
	ReconnectDelay string `toml:"reconnect_delay"`
}

type PollConfig struct {
	MessagesInterval  string `toml:"messages_interval"`
	DocumentsInterval string `toml:"documents_interval"`
	ProblemInterval   string `toml:"problem_interval"`
}

type UploadConfig struct {
	MaxFileSize int64 `toml:"max_file_size"`
	MaxPDFPages int   `toml:"max_pdf_pages"`
}

type NotificationsConfig struct {
	Terminal bool `toml:"terminal"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type UIConfig struct {
	PrefsFile string `toml:"prefs_file"`
}

// Duration parses a config duration, falling back when the value is empty or invalid
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
