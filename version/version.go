package version

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version string = MarketSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// MarketSemVer is the current version of marketd.
	// It's the Semantic Version of the software.
	// Must be a string because scripts like dist.sh read this file.
	MarketSemVer = "0.3.0"
)

// Protocol is used for implementation agnostic versioning.
type Protocol uint64

// Uint64 returns the Protocol version as a uint64,
// eg. for compatibility with ABCI types.
func (p Protocol) Uint64() uint64 {
	return uint64(p)
}

// AppProtocol versions the transaction format and the state transition
// rules. Nodes running different app protocols compute different app hashes.
var AppProtocol Protocol = 1

// App includes the protocol and software version for the application.
// This information is included in ResponseInfo.
type App struct {
	Protocol Protocol `json:"protocol"`
	Software string   `json:"software"`
}

// Info returns the version reported to ABCI clients.
func Info() App {
	return App{Protocol: AppProtocol, Software: Version}
}
