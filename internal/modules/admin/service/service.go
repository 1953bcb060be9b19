package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"anoa.com/facultydir/internal/entity"
	"anoa.com/facultydir/internal/modules/admin/dto"
	profileRepo "anoa.com/facultydir/internal/modules/profile/repository"
	search "anoa.com/facultydir/internal/modules/search/service"
	userRepo "anoa.com/facultydir/internal/modules/user/repository"
	"anoa.com/facultydir/pkg/apperror"
	"anoa.com/facultydir/pkg/storage"
	"gorm.io/gorm"
)

type AdminService interface {
	GetAllUsers(ctx context.Context) ([]*dto.AdminUserResponse, error)
	UpdateUserRole(ctx context.Context, id uint, role string, actor entity.Actor) (*dto.AdminUserResponse, error)
	DeleteUser(ctx context.Context, id uint, actor entity.Actor) error
	GetStats(ctx context.Context) (*dto.StatsResponse, error)
}

type adminService struct {
	users       userRepo.UserRepository
	profiles    profileRepo.ProfileRepository
	fileStorage storage.FileStorage
	search      search.SearchService
}

func NewAdminService(users userRepo.UserRepository, profiles profileRepo.ProfileRepository, fileStorage storage.FileStorage, searchSvc search.SearchService) AdminService {
	return &adminService{
		users:       users,
		profiles:    profiles,
		fileStorage: fileStorage,
		search:      searchSvc,
	}
}

func (s *adminService) GetAllUsers(ctx context.Context) ([]*dto.AdminUserResponse, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.AdminUserResponse, 0, len(users))
	for _, u := range users {
		u.PasswordHash = ""
		responses = append(responses, &dto.AdminUserResponse{User: u, Profile: u.Profile})
	}

	return responses, nil
}

func (s *adminService) UpdateUserRole(ctx context.Context, id uint, role string, actor entity.Actor) (*dto.AdminUserResponse, error) {
	if role != entity.RoleStaff && role != entity.RoleManager {
		return nil, fmt.Errorf("%w: unknown role %q", apperror.ErrInvalidInput, role)
	}

	if actor.ID == id && role != entity.RoleManager {
		return nil, fmt.Errorf("%w: cannot demote your own account", apperror.ErrForbidden)
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &dto.AdminUserResponse{User: user, Profile: user.Profile}, nil
}

// DeleteUser removes the account, its profile row and every stored document.
func (s *adminService) DeleteUser(ctx context.Context, id uint, actor entity.Actor) error {
	if actor.ID == id {
		return fmt.Errorf("%w: cannot delete your own account", apperror.ErrForbidden)
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if user.Profile != nil {
		for _, stored := range user.Profile.DocumentPaths() {
			if err := s.fileStorage.Delete(ctx, stored); err != nil {
				log.Printf("failed to delete file %s: %v", stored, err)
			}
		}

		if s.search != nil {
			if err := s.search.DeleteProfile(user.Profile.ID); err != nil {
				log.Printf("failed to deindex profile %d: %v", user.Profile.ID, err)
			}
		}
	}

	return s.users.Delete(ctx, id)
}

func (s *adminService) GetStats(ctx context.Context) (*dto.StatsResponse, error) {
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profiles.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.StatsResponse{
		TotalUsers:    total,
		TotalProfiles: int64(len(profiles)),
	}, nil
}
