package storage

import "time"

// Visit is one browsing event harvested from a browser's own history
// store. The tuple (URL, Browser, Profile, VisitedAt) is unique in
// durable storage; it is the deduplication key.
type Visit struct {
	ID         int64
	URL        string
	Title      string
	VisitCount int64 // browser-reported cumulative count; informational only
	Browser    string
	Profile    string
	VisitedAt  time.Time
	IngestedAt time.Time

	// SourceID is the row id inside the browser's own store. It is the
	// cursor tie-breaker and is never persisted.
	SourceID int64
}

// Cursor is the per (browser, profile) ingestion high-water mark.
type Cursor struct {
	Browser       string
	Profile       string
	LastVisitedAt time.Time
	LastRowID     int64
}

// DailySummary is one (date, domain, browser) aggregate counter row.
type DailySummary struct {
	Date       string // YYYY-MM-DD
	Domain     string
	Browser    string
	VisitCount int64
}

// ReportRow is one line of a daily report: visits for a domain from a
// browser on a single day.
type ReportRow struct {
	Domain  string
	Browser string
	Visits  int64
}

// DomainCount pairs a domain with a visit count.
type DomainCount struct {
	Domain string
	Count  int64
}

// BrowserCount pairs a browser with a visit count.
type BrowserCount struct {
	Browser string
	Count   int64
}

// Stats holds aggregate statistics about the database.
type Stats struct {
	TotalVisits         int64
	UniqueURLs          int64
	OldestVisit         time.Time
	NewestVisit         time.Time
	ByBrowser           []BrowserCount
	TopDomains          []DomainCount
	MostActiveDay       string
	MostActiveDayVisits int64
}
