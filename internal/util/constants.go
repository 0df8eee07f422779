package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	DefaultSessionListLimit = 50
	MaxSessionListLimit     = 500
	DefaultRecentLimit      = 10
	DefaultNotificationPage = 50
	MaxLeaderboardLimit     = 100
)

const (
	MimeJSON = "application/json"
)

// gin.Context 中的键
const (
	ContextClaimsKey  = "user"
	ContextAccountKey = "account"
	ContextConfigKey  = "config"
)
