package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminSessionDuration is the fixed lifetime of an admin session
const AdminSessionDuration = 8 * time.Hour

const (
	roleAdmin    = "admin"
	roleMerchant = "merchant"
)

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey           string
	MerchantSessionHours int
}

// AdminClaims is the payload of the admin_session cookie
type AdminClaims struct {
	AdminID   uint      `json:"adminId"`
	Username  string    `json:"username"`
	LoginTime time.Time `json:"loginTime"`
	Role      string    `json:"role"`
	jwt.RegisteredClaims
}

// MerchantClaims is the payload of the merchant-session cookie
type MerchantClaims struct {
	MerchantID uint   `json:"merchantId"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// JWTUtil signs and validates session cookie values
type JWTUtil struct {
	config *JWTConfig
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *JWTConfig) *JWTUtil {
	return &JWTUtil{config: config}
}

// MerchantSessionDuration returns the configured merchant session lifetime
func (j *JWTUtil) MerchantSessionDuration() time.Duration {
	if j.config == nil || j.config.MerchantSessionHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.config.MerchantSessionHours) * time.Hour
}

// GenerateAdminToken creates a signed admin session token
func (j *JWTUtil) GenerateAdminToken(adminID uint, username string, loginTime time.Time) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	claims := AdminClaims{
		AdminID:   adminID,
		Username:  username,
		LoginTime: loginTime,
		Role:      roleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("admin:%d", adminID),
			ExpiresAt: jwt.NewNumericDate(loginTime.Add(AdminSessionDuration)),
			IssuedAt:  jwt.NewNumericDate(loginTime),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.config.SigningKey))
}

// GenerateMerchantToken creates a signed merchant session token
func (j *JWTUtil) GenerateMerchantToken(merchantID uint) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	now := time.Now()
	claims := MerchantClaims{
		MerchantID: merchantID,
		Role:       roleMerchant,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("merchant:%d", merchantID),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.MerchantSessionDuration())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.config.SigningKey))
}

// ValidateAdminToken validates and parses an admin session token
func (j *JWTUtil) ValidateAdminToken(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	if err := j.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Role != roleAdmin || claims.AdminID == 0 {
		return nil, errors.New("not an admin session")
	}
	return claims, nil
}

// ValidateMerchantToken validates and parses a merchant session token
func (j *JWTUtil) ValidateMerchantToken(tokenString string) (*MerchantClaims, error) {
	claims := &MerchantClaims{}
	if err := j.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Role != roleMerchant || claims.MerchantID == 0 {
		return nil, errors.New("not a merchant session")
	}
	return claims, nil
}

func (j *JWTUtil) parse(tokenString string, claims jwt.Claims) error {
	if j.config == nil {
		return errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.config.SigningKey), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
