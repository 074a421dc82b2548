package version

import "fmt"

// Set at build time with -ldflags "-X ...".
var (
	App       = "CredGate"
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
	BuildOS   string
	BuildArch string
)

// String returns "<app> <version> (<commit>)", the commit omitted when unknown
func String() string {
	if c := shortCommit(); c != "" {
		return fmt.Sprintf("%s %s (%s)", App, current(), c)
	}
	return App + " " + current()
}

// PrintVersion prints the build information
func PrintVersion() {
	fmt.Println(String())
	if BuildTime != "" {
		fmt.Printf("Build time: %s\n", BuildTime)
	}
	if GoVersion != "" {
		fmt.Printf("Go version: %s\n", GoVersion)
	}
	if BuildOS != "" && BuildArch != "" {
		fmt.Printf("Built for: %s/%s\n", BuildOS, BuildArch)
	}
}

func shortCommit() string {
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}

func current() string {
	if Version == "" {
		return "dev"
	}
	return Version
}
