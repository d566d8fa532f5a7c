package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/quillpost/server/internal/model"
)

const (
	CodeTTL = 2 * time.Minute

	codeMin = 10000
	codeMax = 99999
)

// CodeStore persists at most one code per user
type CodeStore interface {
	Upsert(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (model.Otp, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (model.Otp, error)
	MarkConsumed(ctx context.Context, id uuid.UUID) error
}

// CodeIssuer generates and stores one-time codes
type CodeIssuer struct {
	store    CodeStore
	now      func() time.Time
	generate func() (string, error)
}

// NewCodeIssuer creates a code issuer backed by store
func NewCodeIssuer(store CodeStore) *CodeIssuer {
	return &CodeIssuer{store: store, now: time.Now, generate: generateCode}
}

// Issue replaces the user's code with a fresh one valid for CodeTTL
func (i *CodeIssuer) Issue(ctx context.Context, userID uuid.UUID) (model.Otp, error) {
	code, err := i.generate()
	if err != nil {
		return model.Otp{}, err
	}
	otp, err := i.store.Upsert(ctx, userID, code, i.now().Add(CodeTTL))
	if err != nil {
		return model.Otp{}, fmt.Errorf("failed to store code: %w", err)
	}
	return otp, nil
}

// generateCode returns a uniformly random 5-digit code
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%05d", n.Int64()+codeMin), nil
}

// randomDigits returns n random decimal digits
func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	for i := range buf {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
