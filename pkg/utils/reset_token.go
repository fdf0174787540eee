package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
)

const resetTokenExpiry = 5 * time.Minute

// consumedJTIs tracks reset tokens that were already spent. Entries expire
// together with the token they guard, so the cache stays bounded.
var consumedJTIs = cache.New(resetTokenExpiry, 10*time.Minute)

type ResetClaims struct {
	UserID    uuid.UUID `json:"userID"`
	Email     string    `json:"email"`
	TokenType string    `json:"tokenType"`
	JTI       string    `json:"jti"`
	jwt.RegisteredClaims
}

// GenerateResetToken issues a short-lived single-use token proving that the
// holder validated a password-reset code for the account.
func GenerateResetToken(userID uuid.UUID, email string) (string, error) {
	expiresAt := time.Now().Add(resetTokenExpiry)
	jti := uuid.New().String()
	claims := ResetClaims{
		UserID:    userID,
		Email:     email,
		TokenType: "password_reset",
		JTI:       jti,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        jti,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateResetToken(tokenString string) (*ResetClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ResetClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*ResetClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid reset token")
	}

	if claims.TokenType != "password_reset" {
		return nil, fmt.Errorf("invalid token type")
	}

	if claims.JTI == "" {
		return nil, fmt.Errorf("missing token ID")
	}

	return claims, nil
}

func IsJTIValid(jti string) bool {
	_, consumed := consumedJTIs.Get(jti)
	return !consumed
}

func ConsumeJTI(jti string) {
	consumedJTIs.SetDefault(jti, true)
}
