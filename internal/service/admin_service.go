package service

import (
	"context"
	"errors"

	"github.com/modacart/auth-service/internal/model"
	"github.com/modacart/auth-service/internal/repository"
)

// AdminStore is the credential-store surface the admin operations need.
// Satisfied by *repository.UserRepo.
type AdminStore interface {
	FindByID(ctx context.Context, id uint64) (model.User, error)
	Save(ctx context.Context, u *model.User) error
	CountSuperAdmins(ctx context.Context) (int, error)
	ListAdmins(ctx context.Context, q repository.AdminQuery) ([]model.User, int, error)
}

// AdminService implements the super-admin-only management operations over
// admin accounts. The transport boundary is responsible for ensuring the
// acting user is a live SUPER_ADMIN before any of these run; the service
// itself enforces the target-side invariants.
type AdminService struct {
	users AdminStore
}

func NewAdminService(users AdminStore) *AdminService { return &AdminService{users: users} }

// PermissionUpdate describes a partial update. A nil Level leaves the level
// alone; a nil Permissions slice means "not supplied" and triggers the
// default-set reset when the level changes (an empty non-nil slice is an
// explicit empty set).
type PermissionUpdate struct {
	Level       *model.AdminLevel
	Permissions []model.Permission
}

// ListAdmins returns one page of admin accounts and the total match count.
// Password hashes never appear in listings.
func (s *AdminService) ListAdmins(ctx context.Context, q repository.AdminQuery) ([]model.User, int, error) {
	if q.Level != 0 && !model.ValidAdminLevel(q.Level) {
		return nil, 0, ErrInvalidAdminLevel
	}
	return s.users.ListAdmins(ctx, q)
}

// GetAdmin fetches a single admin account by id.
func (s *AdminService) GetAdmin(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.loadAdmin(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

// UpdateAdminPermissions changes an admin's level and/or permission set.
// Applying a new level without an explicit permissions array resets the set
// to that level's defaults; supplying an explicit array for a (resulting)
// SUPER_ADMIN is rejected because super-admin permissions are implicit.
func (s *AdminService) UpdateAdminPermissions(ctx context.Context, targetID, actingID uint64, upd PermissionUpdate) (model.User, error) {
	if targetID == actingID {
		return model.User{}, ErrSelfModification
	}
	target, err := s.loadAdmin(ctx, targetID)
	if err != nil {
		return model.User{}, err
	}

	newLevel := target.AdminLevel
	if upd.Level != nil {
		if !model.ValidAdminLevel(*upd.Level) {
			return model.User{}, ErrInvalidAdminLevel
		}
		newLevel = *upd.Level
	}

	if target.AdminLevel == model.LevelSuperAdmin && newLevel != model.LevelSuperAdmin {
		n, err := s.users.CountSuperAdmins(ctx)
		if err != nil {
			return model.User{}, err
		}
		if n < 2 {
			return model.User{}, ErrLastSuperAdminDemotion
		}
	}

	if upd.Permissions != nil {
		if newLevel == model.LevelSuperAdmin {
			return model.User{}, ErrSuperAdminRestriction
		}
		for _, p := range upd.Permissions {
			if !model.ValidPermission(p) {
				return model.User{}, ErrInvalidPermission
			}
		}
	}

	target.AdminLevel = newLevel
	switch {
	case upd.Permissions != nil:
		target.Permissions = upd.Permissions
	case upd.Level != nil:
		// Level change without an explicit set resets to the new level's
		// defaults, dropping any custom grants.
		target.Permissions = model.DefaultPermissions(newLevel)
	}

	if err := s.users.Save(ctx, &target); err != nil {
		return model.User{}, err
	}
	target.PasswordHash = ""
	return target, nil
}

// GrantPermission adds one permission to an admin's set. Granting to a
// SUPER_ADMIN fails: they already hold everything. The operation is
// idempotent and only writes when the set actually changes.
func (s *AdminService) GrantPermission(ctx context.Context, targetID, actingID uint64, perm model.Permission) (model.User, error) {
	target, err := s.permissionTarget(ctx, targetID, actingID, perm)
	if err != nil {
		return model.User{}, err
	}
	if target.AdminLevel == model.LevelSuperAdmin {
		return model.User{}, ErrAlreadyMaximal
	}
	for _, have := range target.Permissions {
		if have == perm {
			target.PasswordHash = ""
			return target, nil // already present, nothing to persist
		}
	}
	target.Permissions = append(target.Permissions, perm)
	if err := s.users.Save(ctx, &target); err != nil {
		return model.User{}, err
	}
	target.PasswordHash = ""
	return target, nil
}

// RevokePermission removes one permission from an admin's set. Revoking from
// a SUPER_ADMIN fails because their set is fixed. Idempotent; only writes on
// actual change.
func (s *AdminService) RevokePermission(ctx context.Context, targetID, actingID uint64, perm model.Permission) (model.User, error) {
	target, err := s.permissionTarget(ctx, targetID, actingID, perm)
	if err != nil {
		return model.User{}, err
	}
	if target.AdminLevel == model.LevelSuperAdmin {
		return model.User{}, ErrSuperAdminRestriction
	}
	kept := target.Permissions[:0]
	found := false
	for _, have := range target.Permissions {
		if have == perm {
			found = true
			continue
		}
		kept = append(kept, have)
	}
	if !found {
		target.PasswordHash = ""
		return target, nil // absent, nothing to persist
	}
	target.Permissions = kept
	if err := s.users.Save(ctx, &target); err != nil {
		return model.User{}, err
	}
	target.PasswordHash = ""
	return target, nil
}

// permissionTarget runs the guards shared by grant and revoke.
func (s *AdminService) permissionTarget(ctx context.Context, targetID, actingID uint64, perm model.Permission) (model.User, error) {
	if targetID == actingID {
		return model.User{}, ErrSelfModification
	}
	if !model.ValidPermission(perm) {
		return model.User{}, ErrInvalidPermission
	}
	return s.loadAdmin(ctx, targetID)
}

func (s *AdminService) loadAdmin(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrAdminNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if !u.IsAdmin() {
		return model.User{}, ErrTargetNotAdmin
	}
	return u, nil
}
