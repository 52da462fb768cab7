package version

// Set at build time with -ldflags "-X github.com/gabe/consultant/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)
