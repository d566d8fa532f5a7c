package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/quillpost/server/internal/auth"
	"github.com/quillpost/server/internal/model"
)

// OtpCookie carries the OTP session token between the two login steps
const OtpCookie = "otp"

// AuthService is the login flow used by AuthHandler
type AuthService interface {
	UserExistence(ctx context.Context, typ model.AuthType, method model.AuthMethod, identifier string) (auth.Challenge, error)
	CheckOtp(ctx context.Context, token, code string) (string, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService AuthService
	now         func() time.Time
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService, now: time.Now}
}

// userExistenceResponse is the JSON response for user-existence
type userExistenceResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Token   string `json:"token"`
}

// checkOtpResponse is the JSON response for check-otp
type checkOtpResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
}

// HandleUserExistence handles POST /auth/user-existence
func (h *AuthHandler) HandleUserExistence(w http.ResponseWriter, r *http.Request) {
	fields, err := bindFields(r, "username", "type", "method")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	challenge, err := h.authService.UserExistence(r.Context(),
		model.AuthType(fields["type"]), model.AuthMethod(fields["method"]), fields["username"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     OtpCookie,
		Value:    challenge.Token,
		Path:     "/",
		Expires:  h.now().Add(auth.OtpTokenTTL),
		HttpOnly: true,
		Secure:   true,
	})
	respondWithJSON(w, http.StatusOK, userExistenceResponse{
		Message: "a verification code has been sent to you",
		Code:    challenge.Code,
		Token:   challenge.Token,
	})
}

// HandleCheckOtp handles POST /auth/check-otp
func (h *AuthHandler) HandleCheckOtp(w http.ResponseWriter, r *http.Request) {
	fields, err := bindFields(r, "code")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields["code"] == "" {
		respondWithError(w, http.StatusBadRequest, "code is required")
		return
	}

	var token string
	if c, err := r.Cookie(OtpCookie); err == nil {
		token = c.Value
	}

	accessToken, err := h.authService.CheckOtp(r.Context(), token, fields["code"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, checkOtpResponse{
		Message:     "you have logged in successfully",
		AccessToken: accessToken,
	})
}
