package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quillpost/server/internal/logging"
	"github.com/quillpost/server/internal/model"
)

// CodeSender delivers an issued code to the user out of band
type CodeSender interface {
	SendCode(ctx context.Context, user model.User, method model.AuthMethod, code string) error
}

// Challenge is the result of a successful login/register request
type Challenge struct {
	User      model.User
	Code      string
	Token     string
	ExpiresAt time.Time
}

// Option configures an AuthService
type Option func(*AuthService)

// WithClock replaces time.Now for expiry checks and token timestamps
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) {
		s.now = now
		s.codes.now = now
		s.tokens.WithClock(now)
	}
}

// WithSender sets the code delivery channel
func WithSender(sender CodeSender) Option {
	return func(s *AuthService) { s.sender = sender }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *AuthService) { s.logger = logger }
}

// AuthService orchestrates the OTP login flow and access token checks
type AuthService struct {
	identity *IdentityResolver
	codes    *CodeIssuer
	store    CodeStore
	tokens   *TokenService
	users    UserStore
	guard    AttemptGuard
	sender   CodeSender
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	users UserStore,
	codes CodeStore,
	tokens *TokenService,
	guard AttemptGuard,
	phoneRegion string,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		identity: NewIdentityResolver(users, phoneRegion),
		codes:    NewCodeIssuer(codes),
		store:    codes,
		tokens:   tokens,
		users:    users,
		guard:    guard,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserExistence resolves (or registers) the user behind the identifier,
// issues a fresh code and returns it with an OTP session token.
func (s *AuthService) UserExistence(ctx context.Context, typ model.AuthType, method model.AuthMethod, identifier string) (Challenge, error) {
	user, err := s.identity.Resolve(ctx, typ, method, identifier)
	if err != nil {
		return Challenge{}, err
	}

	otp, err := s.codes.Issue(ctx, user.ID)
	if err != nil {
		return Challenge{}, err
	}

	token, err := s.tokens.SignOtpToken(user.ID)
	if err != nil {
		return Challenge{}, err
	}

	if s.sender != nil {
		if err := s.sender.SendCode(ctx, user, method, otp.Code); err != nil {
			s.logger.Warn("code delivery failed",
				zap.String("user_id", user.ID.String()),
				zap.String("to", logging.MaskIdentifier(strings.TrimSpace(identifier))),
				zap.Error(err),
			)
		}
	}

	return Challenge{User: user, Code: otp.Code, Token: token, ExpiresAt: otp.ExpiresAt}, nil
}

// CheckOtp verifies the code against the user bound to the OTP session token
// and returns an access token. A code yields at most one access token.
func (s *AuthService) CheckOtp(ctx context.Context, token, code string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", model.Unauthorized("invalid OTP token")
	}

	userID, err := s.tokens.VerifyOtpToken(token)
	if err != nil {
		s.logVerifyFailure(err)
		return "", err
	}

	otp, err := s.store.GetByUserID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return "", model.Unauthorized("unauthorized")
	}
	if err != nil {
		return "", fmt.Errorf("failed to load code: %w", err)
	}
	if otp.ConsumedAt != nil {
		s.logger.Info("otp already consumed", zap.String("user_id", userID.String()))
		return "", model.Unauthorized("unauthorized")
	}

	locked, err := s.guard.Locked(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to check attempts: %w", err)
	}
	if locked {
		return "", model.NewError(model.ErrTooManyRequests, "too many attempts, try again later")
	}

	if s.now().After(otp.ExpiresAt) {
		s.logger.Info("otp expired", zap.String("user_id", userID.String()))
		return "", model.Unauthorized("unauthorized")
	}

	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(otp.Code)) != 1 {
		if err := s.guard.Fail(ctx, userID); err != nil {
			s.logger.Error("failed to record attempt", zap.String("user_id", userID.String()), zap.Error(err))
		}
		return "", model.BadRequest("the code you entered is incorrect")
	}

	if err := s.store.MarkConsumed(ctx, otp.ID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.Unauthorized("unauthorized")
		}
		return "", fmt.Errorf("failed to consume code: %w", err)
	}
	if err := s.guard.Reset(ctx, userID); err != nil {
		s.logger.Error("failed to reset attempts", zap.String("user_id", userID.String()), zap.Error(err))
	}

	return s.tokens.SignAccessToken(userID)
}

// Authenticate resolves the acting user from an access token
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (model.User, error) {
	userID, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		s.logVerifyFailure(err)
		return model.User{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.Unauthorized("unauthorized")
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	if user.IsBlocked {
		return model.User{}, model.Forbidden("your account has been blocked")
	}
	return user, nil
}

func (s *AuthService) logVerifyFailure(err error) {
	var vf *VerifyFailure
	if errors.As(err, &vf) {
		s.logger.Info("token rejected",
			zap.String("domain", string(vf.Domain)),
			zap.String("reason", string(vf.Reason)),
		)
	}
}

