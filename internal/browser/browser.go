// Package browser knows the supported browsers: their identifiers,
// their history-store time encodings, and where their profiles live
// on disk.
package browser

// Browser identifies a supported browser.
type Browser string

const (
	Chrome  Browser = "chrome"
	Edge    Browser = "edge"
	Brave   Browser = "brave"
	Firefox Browser = "firefox"
)

// Family groups browsers that share a history-store schema and time
// encoding.
type Family string

const (
	// Chromium covers Chrome, Edge, and Brave: an `urls` table with
	// times in microseconds since 1601-01-01 UTC.
	Chromium Family = "chromium"
	// Mozilla covers Firefox: a `moz_places` table with times in
	// microseconds since the Unix epoch.
	Mozilla Family = "mozilla"
)

// All returns every supported browser.
func All() []Browser {
	return []Browser{Chrome, Edge, Brave, Firefox}
}

// Valid reports whether b is a supported browser identifier.
func (b Browser) Valid() bool {
	switch b {
	case Chrome, Edge, Brave, Firefox:
		return true
	}
	return false
}

// Family returns the store family for b. The zero Family is returned
// for unknown browsers; callers that validated b never see it.
func (b Browser) Family() Family {
	switch b {
	case Chrome, Edge, Brave:
		return Chromium
	case Firefox:
		return Mozilla
	}
	return ""
}

func (b Browser) String() string { return string(b) }
