package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RefreshTokenKey returns the cache key holding the account ID for an
// outstanding refresh token. The key is deleted on redemption (rotation).
func (r *CacheKeyStruct) RefreshTokenKey(token string) string {
	return fmt.Sprintf("refresh:%s", token)
}

// NotificationChannel returns the Redis PubSub channel name for live
// notification delivery to one account.
func (r *CacheKeyStruct) NotificationChannel(accountID int) string {
	return fmt.Sprintf("account:%d:notifications", accountID)
}

var CacheKey = NewCacheKeyStruct()
