package version

// Version is the runtime version, set at build time with
// -ldflags "-X github.com/rxtech-lab/argo-runtime/internal/version.Version=1.2.3".
// "main" marks a development build.
var Version = "v0.3.0"

// GetVersion returns the runtime version.
func GetVersion() string {
	return Version
}
