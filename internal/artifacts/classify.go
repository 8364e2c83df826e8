// Package artifacts discovers, classifies and collects the native export
// libraries produced by the managed build.
package artifacts

import (
	"path/filepath"
	"strings"
)

// Classification is the verdict on a discovered binary file.
type Classification int

const (
	// Skip means the file is a helper or third-party binary and is not
	// packaged.
	Skip Classification = iota
	// Match means the file is one of ours and gets copied.
	Match
)

func (c Classification) String() string {
	if c == Match {
		return "match"
	}
	return "skip"
}

// Classify decides whether a file name belongs to the SDK. The rule is a
// case-sensitive substring match on "proton" anywhere in the name, which
// also covers the lib-prefixed variants.
func Classify(name string) Classification {
	if strings.Contains(name, "proton") {
		return Match
	}
	return Skip
}

// libraryExtensions are the platform-native dynamic-library suffixes the
// collector considers.
var libraryExtensions = map[string]bool{
	".dll":   true,
	".so":    true,
	".dylib": true,
}

// IsLibrary reports whether the file name carries a dynamic-library
// extension.
func IsLibrary(name string) bool {
	return libraryExtensions[strings.ToLower(filepath.Ext(name))]
}
