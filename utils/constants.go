package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds (86400 seconds = 24 hours)
	AccessTokenTTLSeconds = 86400

	// ResetTokenTTL is the validity window for password-reset tokens (1 hour)
	ResetTokenTTL = time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Complaint intake constants
const (
	// MaxUploadFiles is the maximum number of files accepted per submission
	MaxUploadFiles = 5

	// MaxUploadFileSize is the per-file upload limit (10 MB)
	MaxUploadFileSize = 10 * 1024 * 1024

	// TrackingIDMaxAttempts bounds collision retries during tracking id generation
	TrackingIDMaxAttempts = 5

	// StatisticsRecentWindow is the lookback window for the "recent" counter
	StatisticsRecentWindow = 30 * 24 * time.Hour
)

// Cache keys and TTLs
const (
	// CategoryTreeCacheKey caches the public category tree
	CategoryTreeCacheKey = "category_tree"

	// StatisticsCacheKey caches the admin complaint statistics
	StatisticsCacheKey = "complaint_statistics"

	// StatisticsCacheTTL bounds staleness of the cached statistics
	StatisticsCacheTTL = 5 * time.Minute
)
