package version

// Maj, Min and Fix make up the server's semantic version, reported by the
// getversion built-in and the `stars version` command.
const Maj = "1"
const Min = "0"
const Fix = "0"

var (
	// Version is the full version string.
	Version = Maj + "." + Min + "." + Fix

	// GitCommit is set with -ldflags "-X github.com/kektsukuba/stars/version.GitCommit=$(git rev-parse HEAD)"
	GitCommit string
)

func init() {
	if GitCommit != "" {
		if len(GitCommit) > 8 {
			Version += "-" + GitCommit[:8]
		} else {
			Version += "-" + GitCommit
		}
	}
}

// ServerID is the identifier sent as the first token of the connection
// banner.
const ServerID = "STARS"
