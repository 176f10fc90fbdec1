// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/useSafe/File-Allocation-System-2.0/internal/auth"
	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
	"github.com/useSafe/File-Allocation-System-2.0/internal/feed"
)

var ErrPrimordialAdmin = errors.New("the primordial admin cannot be deleted or deactivated")

type Service struct {
	repo      Repository
	policy    Policy
	publisher feed.Publisher
}

func NewService(repo Repository, policy Policy, publisher feed.Publisher) *Service {
	return &Service{
		repo:      repo,
		policy:    policy,
		publisher: publisher,
	}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) ValidatePassword(password string) error {
	return ValidatePassword(password)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	if !core.ValidID(id) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) CreateUser(
	ctx context.Context,
	req CreateUserRequest,
) (*User, error) {
	in := UserInput{Name: req.Name, Email: req.Email, Password: req.Password}
	if err := Validate(in, s.policy); err != nil {
		return nil, err
	}

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           core.NewID(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Role:         valueOr(req.Role, RoleUser),
		Status:       valueOr(req.Status, StatusActive),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user created",
		"user_id", user.ID,
		"role", user.Role,
	)
	s.changed(ctx)
	return user, nil
}

// UpdateUser applies an admin edit. Deactivating or demoting an account
// bumps its token version so outstanding access tokens stop working.
func (s *Service) UpdateUser(
	ctx context.Context,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil && *req.Status == StatusInactive && s.policy.IsPrimordial(user.Email) {
		return nil, fmt.Errorf("update user: %w: %w", core.ErrForbidden, ErrPrimordialAdmin)
	}
	if req.Email != nil && s.policy.IsPrimordial(user.Email) && !s.policy.IsPrimordial(*req.Email) {
		return nil, fmt.Errorf("update user: %w: %w", core.ErrForbidden, ErrPrimordialAdmin)
	}

	next := *user
	if req.Name != nil {
		next.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		next.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		next.Role = *req.Role
	}
	if req.Status != nil {
		next.Status = *req.Status
	}

	var password string
	if req.Password != nil {
		password = *req.Password
	}
	in := UserInput{Name: next.Name, Email: next.Email, Password: password}
	if err := ValidateUpdate(in, s.policy); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &next); err != nil {
		return nil, err
	}

	revoke := (user.IsActive() && !next.IsActive()) || (user.IsAdmin() && !next.IsAdmin())
	if password != "" {
		hash, err := core.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := s.repo.UpdatePassword(ctx, next.ID, hash); err != nil {
			return nil, err
		}
		revoke = true
	}
	if revoke {
		if err := s.repo.IncrementTokenVersion(ctx, next.ID); err != nil {
			return nil, err
		}
	}

	slog.Info("user updated",
		"user_id", next.ID,
		"role", next.Role,
		"status", next.Status,
	)
	s.changed(ctx)
	return &next, nil
}

// DeleteUser soft-deletes an account. The primordial admin and the
// requester's own account are refused before anything is written. Requests
// address accounts by id, so the single lookup that resolves the email is
// the only store call a refused delete makes.
func (s *Service) DeleteUser(ctx context.Context, requesterID, id string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if s.policy.IsPrimordial(user.Email) {
		return fmt.Errorf("delete user: %w: %w", core.ErrForbidden, ErrPrimordialAdmin)
	}
	if user.ID == requesterID {
		return fmt.Errorf("cannot delete your own account: %w", core.ErrForbidden)
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	slog.Info("user deleted", "user_id", id)
	s.changed(ctx)
	return nil
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(req.Name)
	if user.Name == "" {
		return nil, ValidationErrors{"name is required"}
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.changed(ctx)
	return user, nil
}

// EnsurePrimordialAdmin creates admin@<domain> when it does not exist yet.
// It reports whether an account was created.
func (s *Service) EnsurePrimordialAdmin(
	ctx context.Context,
	name, password string,
) (bool, error) {
	exists, err := s.repo.ExistsByEmail(ctx, s.policy.PrimordialEmail())
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if name == "" {
		name = "Administrator"
	}
	_, err = s.CreateUser(ctx, CreateUserRequest{
		Email:    s.policy.PrimordialEmail(),
		Password: password,
		Name:     name,
		Role:     RoleAdmin,
		Status:   StatusActive,
	})
	if errors.Is(err, core.ErrDuplicateKey) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed primordial admin: %w", err)
	}
	return true, nil
}

func (s *Service) changed(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, feed.Users); err != nil {
		slog.Warn("user change not published", "error", err)
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Status:       u.Status,
		TokenVersion: u.TokenVersion,
	}
}

var _ auth.UserProvider = (*Service)(nil)
