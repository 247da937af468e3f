package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itchan-dev/discussion/shared/domain"
	internal_errors "github.com/itchan-dev/discussion/shared/errors"
	"github.com/itchan-dev/discussion/shared/logger"
)

type JwtService interface {
	NewToken(viewer domain.Viewer) (string, error)
	DecodeToken(jwtStr string) (*jwt.Token, error)
	DecodeViewer(jwtStr string) (domain.Viewer, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey, ttl}
}

var errInvalidClaims = &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}

func (j *Jwt) NewToken(viewer domain.Viewer) (string, error) {
	claims := jwt.MapClaims{}
	claims["sub"] = viewer.Username
	claims["admin"] = viewer.Privileged
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign token", "error", err)
		return "", errors.New("Can't create token")
	}

	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (*jwt.Token, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		// Verify signing algorithm
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &internal_errors.ErrorWithStatusCode{Message: fmt.Sprintf("Unexpected signing method: %v", token.Header["alg"]), StatusCode: http.StatusUnauthorized}
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		logger.Log.Debug("token rejected", "error", err)
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token signature", StatusCode: http.StatusUnauthorized}
	}

	if !token.Valid {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid access token", StatusCode: http.StatusUnauthorized}
	}

	return token, nil
}

// DecodeViewer verifies the session token and returns the authenticated viewer it names.
func (j *Jwt) DecodeViewer(jwtStr string) (domain.Viewer, error) {
	token, err := j.DecodeToken(jwtStr)
	if err != nil {
		return domain.Viewer{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Viewer{}, errInvalidClaims
	}
	username, ok := claims["sub"].(string)
	if !ok || username == "" {
		return domain.Viewer{}, errInvalidClaims
	}
	admin, _ := claims["admin"].(bool)

	return domain.Viewer{Authenticated: true, Username: username, Privileged: admin}, nil
}
