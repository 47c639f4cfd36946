// Package panel implements the local HTTP control API of rig-panel.
//
// It lets scripts and other machines press and release panel buttons and
// read the current indicator snapshot, for setups without GPIO buttons.
package panel
