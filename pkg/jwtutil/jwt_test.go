package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUtil(key string) *JWTUtil {
	return NewJWTUtil(&JWTConfig{SigningKey: key, MerchantSessionHours: 2})
}

func TestAdminTokenRoundTrip(t *testing.T) {
	j := newUtil("k1")
	login := time.Now().Truncate(time.Second)

	token, err := j.GenerateAdminToken(7, "root", login)
	require.NoError(t, err)

	claims, err := j.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.AdminID)
	assert.Equal(t, "root", claims.Username)
	assert.True(t, claims.LoginTime.Equal(login))
	assert.WithinDuration(t, login.Add(AdminSessionDuration), claims.ExpiresAt.Time, time.Second)
}

func TestAdminTokenExpired(t *testing.T) {
	j := newUtil("k1")
	token, err := j.GenerateAdminToken(1, "root", time.Now().Add(-9*time.Hour))
	require.NoError(t, err)

	_, err = j.ValidateAdminToken(token)
	assert.Error(t, err)
}

func TestMerchantTokenRoundTrip(t *testing.T) {
	j := newUtil("k1")
	token, err := j.GenerateMerchantToken(42)
	require.NoError(t, err)

	claims, err := j.ValidateMerchantToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.MerchantID)
	assert.Equal(t, 2*time.Hour, j.MerchantSessionDuration())
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	j := newUtil("k1")

	merchantToken, err := j.GenerateMerchantToken(3)
	require.NoError(t, err)
	_, err = j.ValidateAdminToken(merchantToken)
	assert.Error(t, err)

	adminToken, err := j.GenerateAdminToken(3, "root", time.Now())
	require.NoError(t, err)
	_, err = j.ValidateMerchantToken(adminToken)
	assert.Error(t, err)
}

func TestWrongSigningKeyRejected(t *testing.T) {
	token, err := newUtil("k1").GenerateMerchantToken(3)
	require.NoError(t, err)

	_, err = newUtil("k2").ValidateMerchantToken(token)
	assert.Error(t, err)

	_, err = newUtil("k1").ValidateMerchantToken("3")
	assert.Error(t, err)
}
