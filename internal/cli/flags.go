package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// RunCommand — start the ingestion engine and poll until shutdown.
type RunCommand struct {
	Interval int `long:"interval" description:"Override polling interval in seconds"`

	globals *GlobalFlags
	version string
}

// ListCommand — show the most recent captured visits.
type ListCommand struct {
	Limit int `long:"limit" description:"Maximum entries to show" default:"50"`

	globals *GlobalFlags
	version string
}

// SearchCommand — find visits whose URL or title matches a term.
type SearchCommand struct {
	Limit int `long:"limit" description:"Maximum results" default:"100"`

	Args struct {
		Term string `positional-arg-name:"term" description:"Search term" required:"yes"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// ReportCommand — per-domain visit totals for a single day.
type ReportCommand struct {
	Date string `long:"date" description:"Day to report (YYYY-MM-DD, default today)"`

	globals *GlobalFlags
	version string
}

// TopCommand — most visited domains over a trailing window.
type TopCommand struct {
	Days int `long:"days" description:"Trailing window in days" default:"7"`

	globals *GlobalFlags
	version string
}

// StatusCommand — overall statistics and database summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}
