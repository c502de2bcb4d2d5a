package version

import "fmt"

// Version and Commit are set at build time via ldflags, e.g.
// -X github.com/maktabaapp/maktaba/pkg/version.Version=1.2.0.
var (
	Version = "dev"
	Commit  = "unknown"
)

func String() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
