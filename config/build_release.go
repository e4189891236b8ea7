//go:build !debug

package config

// BuildMode is selected with the "debug" build tag.
const BuildMode = BuildRelease
