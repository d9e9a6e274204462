package buildinfo

// set by goreleaser via ldflags
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)
