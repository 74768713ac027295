package op_service

import "strings"

// Set at build time with -ldflags "-X".
var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
	Meta      = "dev"
)

func DefaultFormatVersion() string {
	return FormatVersion(Version, GitCommit, GitDate, Meta)
}

// FormatVersion joins the non-empty parts with dashes, shortening the commit to 8 characters.
func FormatVersion(version string, gitCommit string, gitDate string, meta string) string {
	if len(gitCommit) > 8 {
		gitCommit = gitCommit[:8]
	}
	parts := []string{version}
	for _, p := range []string{gitCommit, gitDate, meta} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "-")
}
