// Package config defines the settings shared by rig-panel and rig-simulator
// and provides helpers to load, validate and save them in YAML format.
//
// Values from the YAML file can be overridden by RIG_PANEL_* environment
// variables, optionally seeded from a .env file.
package config
