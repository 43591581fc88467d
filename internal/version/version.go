// ABOUTME: Version information for the audio bridge
// ABOUTME: Reported in client/hello device info and the CLI banner
package version

const (
	// Version is the software version
	Version = "0.3.0"

	// Product is the product name sent to peers
	Product = "Audio Bridge"

	// Manufacturer identifies the maker in device info
	Manufacturer = "Resonate"
)

// String returns the banner shown at startup, e.g. "Audio Bridge 0.3.0"
func String() string {
	return Product + " " + Version
}
