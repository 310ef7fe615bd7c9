// Package buildinfo holds version information injected at build time via ldflags.
package buildinfo

// AppName is used for the settings directory, keyring service and user agent.
const AppName = "hassdesk"

var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// UserAgent returns the identifier sent to Home Assistant.
func UserAgent() string {
	return AppName + "/" + Version
}
