package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quillpost/server/internal/model"
)

const (
	OtpTokenTTL    = 2 * time.Minute
	AccessTokenTTL = 7 * 24 * time.Hour
)

// Domain separates the two token families. Each has its own secret and is
// stamped into the audience claim.
type Domain string

const (
	DomainOtp    Domain = "otp"
	DomainAccess Domain = "access"
)

// FailureReason is the internal classification of a rejected token.
// It is only logged; callers always see Unauthorized.
type FailureReason string

const (
	ReasonExpired      FailureReason = "expired"
	ReasonBadSignature FailureReason = "bad_signature"
	ReasonMalformed    FailureReason = "malformed"
)

// VerifyFailure is returned by the Verify methods. It matches
// model.ErrUnauthorized under errors.Is.
type VerifyFailure struct {
	Domain Domain
	Reason FailureReason
	Err    error
}

func (f *VerifyFailure) Error() string {
	return fmt.Sprintf("%s token rejected (%s): %v", f.Domain, f.Reason, f.Err)
}

func (f *VerifyFailure) Unwrap() []error {
	return []error{model.ErrUnauthorized, f.Err}
}

// Claims represents the JWT claims shared by both domains
type Claims struct {
	UserID uuid.UUID `json:"userId"`
	jwt.RegisteredClaims
}

type tokenKey struct {
	domain Domain
	secret []byte
	ttl    time.Duration
}

// TokenService signs and verifies OTP session and access tokens
type TokenService struct {
	otp    tokenKey
	access tokenKey
	now    func() time.Time
}

// NewTokenService creates a token service with one secret per domain
func NewTokenService(otpSecret, accessSecret string) *TokenService {
	return &TokenService{
		otp:    tokenKey{domain: DomainOtp, secret: []byte(otpSecret), ttl: OtpTokenTTL},
		access: tokenKey{domain: DomainAccess, secret: []byte(accessSecret), ttl: AccessTokenTTL},
		now:    time.Now,
	}
}

// WithClock replaces the time source used for signing and expiry checks
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// SignOtpToken creates the short-lived token that binds a code check to a user
func (s *TokenService) SignOtpToken(userID uuid.UUID) (string, error) {
	return s.sign(s.otp, userID)
}

// SignAccessToken creates the long-lived bearer token
func (s *TokenService) SignAccessToken(userID uuid.UUID) (string, error) {
	return s.sign(s.access, userID)
}

// VerifyOtpToken returns the user id of a valid OTP session token
func (s *TokenService) VerifyOtpToken(token string) (uuid.UUID, error) {
	return s.verify(s.otp, token)
}

// VerifyAccessToken returns the user id of a valid access token
func (s *TokenService) VerifyAccessToken(token string) (uuid.UUID, error) {
	return s.verify(s.access, token)
}

func (s *TokenService) sign(k tokenKey, userID uuid.UUID) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{string(k.domain)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(k.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", k.domain, err)
	}
	return tokenString, nil
}

func (s *TokenService) verify(k tokenKey, tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return k.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(string(k.domain)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, &VerifyFailure{Domain: k.domain, Reason: classify(err), Err: err}
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return uuid.Nil, &VerifyFailure{Domain: k.domain, Reason: ReasonMalformed, Err: errors.New("missing userId claim")}
	}
	return claims.UserID, nil
}

func classify(err error) FailureReason {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ReasonBadSignature
	}
	return ReasonMalformed
}
