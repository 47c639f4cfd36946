// Package version holds the build metadata of rig-panel and rig-simulator.
//
// Version, Commit and BuildTime are set with -ldflags -X at release time.
package version
