package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"anoa.com/facultydir/internal/entity"
	"anoa.com/facultydir/pkg/apperror"
)

// lockDuration is the grace window a manager-issued lock carries.
const lockDuration = 24 * time.Hour

// gateWrite decides whether the actor may mutate the profile. An expired
// lock is normalized (timer cleared, lock kept) before the decision; expiry
// never restores write access for non-managers.
func (s *profileService) gateWrite(ctx context.Context, profile *entity.Profile, actor entity.Actor) error {
	if profile.IsLocked {
		if profile.LockExpiry != nil && !s.now().Before(*profile.LockExpiry) {
			if err := s.repo.UpdateColumns(ctx, profile.ID, map[string]interface{}{
				"lock_expiry": nil,
			}); err != nil {
				return err
			}
			profile.LockExpiry = nil
		}

		if !actor.IsManager() {
			return fmt.Errorf("%w: profile is locked; request edit access", apperror.ErrForbidden)
		}
	}

	if actor.ID != profile.UserID && !actor.IsManager() {
		return apperror.ErrForbidden
	}

	return nil
}

func (s *profileService) LockProfile(ctx context.Context, id uint, lock bool, actor entity.Actor) error {
	if !actor.IsManager() {
		return fmt.Errorf("%w: only managers can lock profiles", apperror.ErrForbidden)
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return asNotFound(err)
	}

	var expiry *time.Time
	if lock {
		t := s.now().Add(lockDuration)
		expiry = &t
	}

	return s.repo.SetLock(ctx, id, lock, expiry)
}

func (s *profileService) LockAllProfiles(ctx context.Context, lock bool, actor entity.Actor) error {
	if !actor.IsManager() {
		return fmt.Errorf("%w: only managers can lock profiles", apperror.ErrForbidden)
	}

	var expiry *time.Time
	if lock {
		t := s.now().Add(lockDuration)
		expiry = &t
	}

	return s.repo.SetLockAll(ctx, lock, expiry)
}

func (s *profileService) RequestEdit(ctx context.Context, id uint, actor entity.Actor) error {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return asNotFound(err)
	}

	if actor.ID != profile.UserID {
		return fmt.Errorf("%w: can only request edit access for your own profile", apperror.ErrForbidden)
	}

	if err := s.repo.UpdateColumns(ctx, id, map[string]interface{}{
		"edit_requested": true,
	}); err != nil {
		return err
	}

	msg := fmt.Sprintf("%s (%s) requested edit access to their profile", profile.Name, profile.Department)
	if s.notifier != nil {
		if err := s.notifier.NotifyManagers(ctx, entity.NotificationEditRequest, msg); err != nil {
			log.Printf("failed to notify managers about edit request: %v", err)
		}
	}

	if s.sender != nil {
		managers, err := s.userRepo.FindByRole(ctx, entity.RoleManager)
		if err != nil {
			log.Printf("failed to look up managers for edit-request email: %v", err)
		} else {
			for _, m := range managers {
				s.sender.SendAsync(m.Email, "Profile edit request", msg, "")
			}
		}
	}

	return nil
}

// ApproveEdit unlocks the profile and clears the pending request. Idempotent:
// approving an already-unlocked profile is not an error.
func (s *profileService) ApproveEdit(ctx context.Context, id uint, actor entity.Actor) error {
	if !actor.IsManager() {
		return fmt.Errorf("%w: only managers can approve edit requests", apperror.ErrForbidden)
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return asNotFound(err)
	}

	return s.repo.UpdateColumns(ctx, id, map[string]interface{}{
		"is_locked":      false,
		"lock_expiry":    nil,
		"edit_requested": false,
	})
}
