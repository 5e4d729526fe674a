package config

import "time"

const (
	accessTokenExpiryVar  = "ACCESS_TOKEN_EXPIRY"
	refreshTokenExpiryVar = "REFRESH_TOKEN_EXPIRY"
)

type Tokens struct{}

var _ TokenConfig = Tokens{}

// GetAccessTokenExpiry is short so the refresh path is exercised often.
func (Tokens) GetAccessTokenExpiry() time.Duration {
	return GetDuration(accessTokenExpiryVar, 15*time.Minute)
}

func (Tokens) GetRefreshTokenExpiry() time.Duration {
	return GetDuration(refreshTokenExpiryVar, 7*24*time.Hour)
}

func (Tokens) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}
