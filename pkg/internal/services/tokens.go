package services

import (
	"fmt"
	"strconv"
	"time"

	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

const tokenIssuer = "conduit"

type UserClaims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func tokenSecret() ([]byte, error) {
	secret := viper.GetString("security.token_secret")
	if len(secret) == 0 {
		return nil, fmt.Errorf("token secret was not configured")
	}
	return []byte(secret), nil
}

func NewUserToken(user models.User) (string, error) {
	secret, err := tokenSecret()
	if err != nil {
		return "", err
	}

	ttl := viper.GetDuration("security.token_ttl")
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}

	now := time.Now()
	claims := UserClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.Itoa(int(user.ID)),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ReadUserToken(raw string) (UserClaims, error) {
	var claims UserClaims

	secret, err := tokenSecret()
	if err != nil {
		return claims, err
	}

	token, err := jwt.ParseWithClaims(
		raw,
		&claims,
		func(token *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return claims, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	} else if !token.Valid {
		return claims, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	return claims, nil
}
