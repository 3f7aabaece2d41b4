package service

import (
	"context"
	"encoding/json"

	"shulehub/internal/entity"
	"shulehub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserService covers the tenant-scoped user administration endpoints.
// Every query is constrained to the caller's school; only super_admin
// may pick a school explicitly.
type UserService struct {
	store repository.Store
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

type UserListInput struct {
	Role     *entity.Role
	Status   *entity.Status
	SchoolID *uuid.UUID // honored for super_admin only
	Limit    int
	Offset   int
}

func (s *UserService) ListUsers(ctx context.Context, principal *Principal, input UserListInput) ([]entity.User, error) {
	if principal == nil {
		return nil, ErrInvalidToken
	}

	filter := repository.UserFilter{
		Role:   input.Role,
		Status: input.Status,
		Limit:  input.Limit,
		Offset: input.Offset,
	}
	if principal.Role == entity.RoleSuperAdmin {
		filter.SchoolID = input.SchoolID
	} else {
		// The caller's school is the trusted tenant scope; query
		// parameters never widen it.
		if principal.SchoolID == nil {
			return nil, ErrForbidden
		}
		filter.SchoolID = principal.SchoolID
	}
	return s.store.Users().List(ctx, filter)
}

// UpdateUserStatus drives the account lifecycle: approve pending
// accounts, suspend, or soft-delete. Cross-tenant targets answer 404 so
// their existence is not leaked.
func (s *UserService) UpdateUserStatus(ctx context.Context, principal *Principal, targetID uuid.UUID, status entity.Status) error {
	if principal == nil {
		return ErrInvalidToken
	}
	if !entity.ValidStatus(status) {
		return NewValidationError("status must be one of pending, active, suspended, deleted")
	}
	if targetID == principal.UserID {
		return ErrForbidden
	}

	target, err := s.store.Users().FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil || target.Status == entity.StatusDeleted {
		return ErrNotFound
	}
	if target.Role == entity.RoleSuperAdmin {
		return ErrForbidden
	}
	if principal.Role != entity.RoleSuperAdmin {
		if principal.SchoolID == nil || target.SchoolID == nil || *target.SchoolID != *principal.SchoolID {
			return ErrNotFound
		}
	}

	previous := target.Status
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if target.SchoolID != nil {
			if err := tx.SetTenant(ctx, *target.SchoolID); err != nil {
				return err
			}
		}
		if err := tx.Users().UpdateStatus(ctx, targetID, status); err != nil {
			return err
		}
		// Suspension and deletion kill every live session immediately.
		if status == entity.StatusSuspended || status == entity.StatusDeleted {
			if err := tx.Sessions().RevokeAllByUser(ctx, targetID); err != nil {
				return err
			}
		}
		raw, err := json.Marshal(map[string]any{"from": previous, "to": status, "by": principal.UserID})
		if err != nil {
			return err
		}
		return tx.Audit().Log(ctx, &entity.AuditLog{
			UserID:   &targetID,
			SchoolID: target.SchoolID,
			Action:   entity.StatusChanged,
			Metadata: datatypes.JSON(raw),
		})
	})
	return err
}

// ListLearners returns the learner directory for one school. School
// staff always read their own school; super_admin must name one.
func (s *UserService) ListLearners(ctx context.Context, principal *Principal, schoolID *uuid.UUID, limit, offset int) ([]entity.Learner, error) {
	if principal == nil {
		return nil, ErrInvalidToken
	}
	scope := principal.SchoolID
	if principal.Role == entity.RoleSuperAdmin {
		scope = schoolID
	}
	if scope == nil {
		return nil, ErrForbidden
	}
	return s.store.Learners().ListBySchool(ctx, *scope, limit, offset)
}

func (s *UserService) GetUser(ctx context.Context, principal *Principal, targetID uuid.UUID) (*entity.User, error) {
	if principal == nil {
		return nil, ErrInvalidToken
	}
	user, err := s.store.Users().FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status == entity.StatusDeleted {
		return nil, ErrNotFound
	}
	if principal.Role != entity.RoleSuperAdmin && targetID != principal.UserID {
		if principal.SchoolID == nil || user.SchoolID == nil || *user.SchoolID != *principal.SchoolID {
			return nil, ErrNotFound
		}
	}
	return user, nil
}
