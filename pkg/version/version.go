package version

// Version is the current release of vouch
const Version = "0.4.0"

// BuildVersion returns the version string for display
func BuildVersion() string {
	return "vouch version " + Version
}

// APIVersion returns just the version number for JSON responses
func APIVersion() string {
	return Version
}
