package config

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			AdminURL: "http://localhost:8080",
			AgentURL: "http://localhost:8000",
			Timeout:  "30s",
		},
		Auth: AuthConfig{
			CredentialsFile: "~/.consultant/credentials.json",
		},
		Stream: StreamConfig{
			ReconnectDelay: "3s",
		},
		Poll: PollConfig{
			MessagesInterval:  "1s",
			DocumentsInterval: "2s",
			ProblemInterval:   "5s",
		},
		Upload: UploadConfig{
			MaxFileSize: 10 * 1024 * 1024,
			MaxPDFPages: 15,
		},
		Notifications: NotificationsConfig{
			Terminal: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "~/.consultant/consultant.log",
		},
		UI: UIConfig{
			PrefsFile: "~/.consultant/prefs.toml",
		},
	}
}
