package opline

// Version is the library version. Release builds override it via
// -ldflags "-X github.com/opline/opline.Version=...".
var Version = "0.3.0-dev"
