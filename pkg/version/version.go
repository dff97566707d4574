package version

// EmptyValue is reported by binaries built without setting Version, such as
// `go test` and `go run`.
const EmptyValue = "dev"

// Version is set at link time, e.g.
// `-ldflags "-X github.com/sidkik/dropletctl/pkg/version.Version=v0.2.0"`.
var Version = EmptyValue

// UserAgent identifies this build in requests to the DigitalOcean API.
func UserAgent() string {
	return "dropletctl/" + Version
}
