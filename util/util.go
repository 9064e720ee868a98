// Package util is a set of utility variables or methods
package util

import mapset "github.com/deckarep/golang-set/v2"

// SupportedFeedExt lists file extensions accepted as announcement feeds.
var SupportedFeedExt = mapset.NewSet(
	".json", ".JSON",
)
