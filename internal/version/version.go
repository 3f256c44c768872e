// Package version holds the build version, set with
// -ldflags "-X github.com/SlimIO/Winelog/internal/version.Version=v1.2.3".
// Package version 保存构建版本号。
package version

// Version is the winelog release, "dev" for local builds.
var Version = "dev"
