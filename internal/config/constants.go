package config

// Application constants
const (
	AppName    = "powerstats"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable (POWERSTATS_LOGGING_LEVEL, ...)
	EnvPrefix = "POWERSTATS"

	// Worksheet contract shared by the hourly and monthly ENTSO-E exports
	DefaultSheet    = "Statistics"
	DefaultSentinel = "n.a."

	// Hourly statistics layout
	DefaultHourlyPattern    = "Hourly_*.xls*"
	DefaultHourlySkipRows   = 9
	DefaultHourlyMaxColumns = 26 // country + day + 24 hours
	DefaultHourChangeLabel  = "3B:00:00"
	DefaultMinHours         = 23
	DefaultDateOrder        = "day-first"

	// Monthly statistics layout
	DefaultMonthlyPattern  = "Monthly_*.xls*"
	DefaultMonthlySkipRows = 7
	DefaultYearLabel       = "Year:"

	// Cache snapshot names, one per dataset kind, inside the source directory
	HourlyCacheName  = "hconsum"
	MonthlyCacheName = "mconsum"

	// Cache invalidation policies
	CachePolicyPresence = "presence"
	CachePolicyModTime  = "modtime"
	CachePolicyContent  = "content"

	// Sheet name of exported workbooks
	DefaultExportSheet = "Data"

	DefaultWorkers   = 4
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
