package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"userdesk/pkg/hash"
	"userdesk/pkg/logging"
	"userdesk/pkg/tokens"
	"userdesk/services/api/internal/models"
	"userdesk/services/api/internal/repo"
)

// LinkPolicy decides what happens when a Google login presents an email that
// already belongs to a password account. Linking by provider-verified email is
// the permissive default; NeverLink refuses and keeps the accounts separate.
type LinkPolicy int

const (
	LinkByEmail LinkPolicy = iota
	NeverLink
)

func ParseLinkPolicy(s string) LinkPolicy {
	if strings.EqualFold(s, "never") {
		return NeverLink
	}
	return LinkByEmail
}

type AuthService struct {
	Repo          *repo.UserRepo
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	LinkPolicy    LinkPolicy
}

type Session struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         models.User
}

type GoogleProfile struct {
	ID    string
	Email string
	Name  string
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return 15 * time.Minute
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return 7 * 24 * time.Hour
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if len(name) < 2 {
		return nil, fmt.Errorf("%w: name must be at least 2 characters", ErrValidation)
	}
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: email is malformed", ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: &pwHash,
		Role:         role,
	}
	if err := s.Repo.Create(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			l.Warn("register_failed", "status", 409, "reason", "email_taken")
			return nil, ErrConflict
		}
		l.Error("register_failed", "reason", "db_error", "error", err)
		return nil, err
	}

	return s.IssueSession(ctx, &user)
}

// ValidateCredentials is read-only; callers issue tokens separately. An
// account without a password hash (OAuth-only) never validates.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.Repo.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, ErrUnauthorized
	}
	if !hash.CheckPassword(*user.PasswordHash, password) {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// IssueSession generates a fresh token pair and overwrites the stored
// refresh hash, revoking every refresh token issued before this one.
func (s *AuthService) IssueSession(ctx context.Context, user *models.User) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.issue", "user_id", user.ID)

	accessExp := time.Now().UTC().Add(s.accessTTL())
	accessToken, err := tokens.SignAccess(s.AccessSecret, user.ID, user.Email, user.Role, user.Name, accessExp)
	if err != nil {
		l.Error("issue_failed", "error", err)
		return nil, err
	}

	refreshExp := time.Now().UTC().Add(s.refreshTTL())
	refreshToken, err := tokens.SignRefresh(s.RefreshSecret, user.ID, user.Email, user.Role, user.Name, refreshExp)
	if err != nil {
		l.Error("issue_failed", "error", err)
		return nil, err
	}

	digest := hash.TokenDigest(refreshToken)
	if err := s.Repo.SetRefreshHash(ctx, user.ID, &digest); err != nil {
		l.Error("issue_failed", "reason", "cannot store refresh hash", "error", err)
		return nil, err
	}
	user.RefreshHash = &digest

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         *user,
	}, nil
}

// ValidateRefresh is the sole revocation check: a cleared or rotated stored
// hash makes every earlier refresh token fail here, expiry notwithstanding.
func (s *AuthService) ValidateRefresh(ctx context.Context, userID uint, presented string) (*models.User, error) {
	user, err := s.Repo.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if user.RefreshHash == nil {
		return nil, ErrForbidden
	}
	if !hash.DigestEqual(hash.TokenDigest(presented), *user.RefreshHash) {
		return nil, ErrForbidden
	}
	return user, nil
}

// Refresh rotates: a validated refresh token is exchanged for a whole new
// pair and the stored hash moves on, so replaying the old token fails.
func (s *AuthService) Refresh(ctx context.Context, userID uint, presented string) (*Session, error) {
	user, err := s.ValidateRefresh(ctx, userID, presented)
	if err != nil {
		return nil, err
	}
	return s.IssueSession(ctx, user)
}

// LoginWithGoogle resolves a provider profile to a local user: by provider id
// first (stable across email changes), then by email per the link policy,
// else a new OAuth-only account.
func (s *AuthService) LoginWithGoogle(ctx context.Context, profile GoogleProfile) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.google")

	if profile.Email == "" {
		l.Warn("google_login_failed", "reason", "profile has no email")
		return nil, ErrUnauthorized
	}

	user, err := s.Repo.ByGoogleID(ctx, profile.ID)
	if err == nil {
		return s.IssueSession(ctx, user)
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	user, err = s.Repo.ByEmail(ctx, profile.Email)
	if err == nil {
		if s.LinkPolicy == NeverLink {
			l.Warn("google_login_failed", "status", 409, "reason", "email belongs to an existing account")
			return nil, ErrConflict
		}
		user.GoogleID = &profile.ID
		if err := s.Repo.Update(ctx, user); err != nil {
			return nil, err
		}
		return s.IssueSession(ctx, user)
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	name := profile.Name
	if name == "" {
		name = "Google User"
	}
	created := models.User{
		Name:     name,
		Email:    profile.Email,
		Role:     models.RoleUser,
		GoogleID: &profile.ID,
	}
	if err := s.Repo.Create(ctx, &created); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return s.IssueSession(ctx, &created)
}

// SignOut clears the stored refresh hash. Calling it for an already
// signed-out user is a no-op.
func (s *AuthService) SignOut(ctx context.Context, userID uint) error {
	return s.Repo.SetRefreshHash(ctx, userID, nil)
}
