package r2manager

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// tokenBytes is the entropy of a raw link token. The 24 random bytes are
// hex-encoded into a 48-character path segment.
const tokenBytes = 24

// HashToken returns the hex-encoded SHA-256 digest of a raw link token.
// Lookups compare digests, never raw secrets.
func HashToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

// GenerateToken returns a new cryptographically random raw link token.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *service) IssueUploadLink(ctx context.Context, req IssueUploadLinkRequest) (*IssuedLink, error) {
	hours := req.ExpiresHours
	if hours == 0 {
		hours = 24
	}
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return nil, NewValidationError("expiresInHours must be a positive number")
	}
	if containsParentSegment(req.Prefix) {
		return nil, NewValidationError("invalid prefix")
	}

	// The issuer must actually hold credentials for the account.
	if _, err := s.GetCredentials(ctx, req.OwnerID, req.AccountID); err != nil {
		return nil, err
	}

	rawToken, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(time.Duration(hours * float64(time.Hour)))

	link := &UploadLink{
		ID:         uuid.New(),
		OwnerID:    req.OwnerID,
		AccountID:  req.AccountID,
		BucketName: req.BucketName,
		Prefix:     NormalizePrefix(req.Prefix),
		TokenHash:  HashToken(rawToken),
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
	}

	if err := s.repository.CreateUploadLink(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create upload link: %w", err)
	}

	return &IssuedLink{
		URL:       fmt.Sprintf("%s/upload/%s", s.baseURL, rawToken),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *service) ResolveUploadLink(ctx context.Context, rawToken string) (*LinkInfo, error) {
	link, err := s.resolveLink(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	return &LinkInfo{
		BucketName: link.BucketName,
		Prefix:     link.Prefix,
		ExpiresAt:  link.ExpiresAt,
	}, nil
}

// resolveLink hashes the presented token and looks up a live link. Unknown
// and expired tokens yield the same ErrUploadLinkNotFound.
func (s *service) resolveLink(ctx context.Context, rawToken string) (*UploadLink, error) {
	if rawToken == "" {
		return nil, ErrUploadLinkNotFound
	}
	link, err := s.repository.GetUploadLinkByTokenHash(ctx, HashToken(rawToken), time.Now().UTC())
	if err != nil {
		return nil, ErrUploadLinkNotFound
	}
	return link, nil
}
