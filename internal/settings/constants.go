package settings

// DB config keys and defaults for settings.
const (
	// SiteNameKey is the DB config key for the display name of the system.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is the fallback display name.
	DefaultSiteName = "Woodline"
	// HistoryPageSizeKey controls how many claims a history page holds.
	HistoryPageSizeKey = "HISTORY_PAGE_SIZE"
	// ReturnsPageSizeKey controls how many rows a returns-ledger page holds.
	ReturnsPageSizeKey = "RETURNS_PAGE_SIZE"
	// AnnouncementMaxLengthKey caps the announcement body length.
	AnnouncementMaxLengthKey = "ANNOUNCEMENT_MAX_LENGTH"
	// DefaultHistoryPageSize is the fallback history page size.
	DefaultHistoryPageSize = 5
	// DefaultReturnsPageSize is the fallback returns-ledger page size.
	DefaultReturnsPageSize = 10
	// DefaultAnnouncementMaxLength is the fallback announcement body cap.
	DefaultAnnouncementMaxLength = 3000
)
