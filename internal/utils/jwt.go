// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/go-multi-account/models"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWTToken signs a web sign-in token for userID.
func GenerateJWTToken(issuer string, userID int64, tokenDuration time.Duration, signKey string) (models.SessionToken, error) {
	if issuer == "" || tokenDuration == 0 || signKey == "" {
		return models.SessionToken{}, errors.New("invalid params for generating JWT Token")
	}

	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(signKey))
	if err != nil {
		return models.SessionToken{}, fmt.Errorf("error occurred during singing JWT token: %w", err)
	}

	return models.SessionToken{Token: token, RegisteredClaims: *claims, SignedString: tokenString, UserID: userID}, nil
}

// ValidateAndParseJWTToken verifies signature, expiry and issuer and returns
// the signed-in user id.
func ValidateAndParseJWTToken(tokenString, tokenSignKey, tokenIssuer string) (models.SessionToken, error) {
	sessionToken := models.SessionToken{}
	token, err := jwt.ParseWithClaims(tokenString, &sessionToken, func(token *jwt.Token) (any, error) {
		return []byte(tokenSignKey), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.SessionToken{}, fmt.Errorf("error occurred validating and parsing token: %w", err)
	}

	userID, err := sessionToken.GetUserID()
	if err != nil {
		return models.SessionToken{}, fmt.Errorf("error occurred during getting subject from token: %w", err)
	}

	sessionToken.Token = token
	sessionToken.SignedString = tokenString
	sessionToken.UserID = userID

	return sessionToken, nil
}

// ParseBearerToken extracts the credential of an "Authorization: Bearer x"
// header.
func ParseBearerToken(authorizationHeader string) (string, error) {
	parts := strings.Fields(authorizationHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}
