// Package version reports the build of a lexiscan binary
package version

// BuildInfo identifies a build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// set with -ldflags "-X 'lexiscan/internal/core/version.version=v0.1.0' -X ...commit=abcd"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build information for service
func Info(service string) BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String is the short form used in user agents and startup logs
func (b BuildInfo) String() string {
	s := b.Service + "/" + b.Version
	if b.Commit != "none" && b.Commit != "" {
		s += "+" + b.Commit
	}
	return s
}
