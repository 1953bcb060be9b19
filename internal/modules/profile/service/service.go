package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"time"

	"anoa.com/facultydir/internal/entity"
	"anoa.com/facultydir/internal/mailer"
	notification "anoa.com/facultydir/internal/modules/notification/service"
	profileDto "anoa.com/facultydir/internal/modules/profile/dto"
	profileRepo "anoa.com/facultydir/internal/modules/profile/repository"
	search "anoa.com/facultydir/internal/modules/search/service"
	userRepo "anoa.com/facultydir/internal/modules/user/repository"
	"anoa.com/facultydir/pkg/apperror"
	"anoa.com/facultydir/pkg/storage"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type ProfileService interface {
	CreateProfile(ctx context.Context, actor entity.Actor, input profileDto.CreateProfileInput, files map[string]profileDto.DocumentFile) (*profileDto.ProfileResponse, error)
	GetProfile(ctx context.Context, id uint) (*profileDto.ProfileResponse, error)
	ListProfiles(ctx context.Context, query string) ([]*profileDto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, id uint, actor entity.Actor, input profileDto.UpdateProfileInput, files map[string]profileDto.DocumentFile) (*profileDto.ProfileResponse, error)
	DeleteProfile(ctx context.Context, id uint, actor entity.Actor) error
	RemoveProfileFile(ctx context.Context, id uint, slot string, actor entity.Actor) error
	LockProfile(ctx context.Context, id uint, lock bool, actor entity.Actor) error
	LockAllProfiles(ctx context.Context, lock bool, actor entity.Actor) error
	RequestEdit(ctx context.Context, id uint, actor entity.Actor) error
	ApproveEdit(ctx context.Context, id uint, actor entity.Actor) error
	CleanupOrphanFiles(ctx context.Context) error
}

type profileService struct {
	repo        profileRepo.ProfileRepository
	userRepo    userRepo.UserRepository
	fileStorage storage.FileStorage
	sender      *mailer.Sender
	notifier    notification.NotificationService
	search      search.SearchService
	sanitizer   *bluemonday.Policy
	now         func() time.Time
}

func NewProfileService(
	repo profileRepo.ProfileRepository,
	users userRepo.UserRepository,
	fileStorage storage.FileStorage,
	sender *mailer.Sender,
	notifier notification.NotificationService,
	searchSvc search.SearchService,
) ProfileService {
	return &profileService{
		repo:        repo,
		userRepo:    users,
		fileStorage: fileStorage,
		sender:      sender,
		notifier:    notifier,
		search:      searchSvc,
		sanitizer:   bluemonday.StrictPolicy(),
		now:         time.Now,
	}
}

func (s *profileService) CreateProfile(ctx context.Context, actor entity.Actor, input profileDto.CreateProfileInput, files map[string]profileDto.DocumentFile) (*profileDto.ProfileResponse, error) {
	if !actor.IsManager() {
		return nil, fmt.Errorf("%w: only managers can onboard faculty", apperror.ErrForbidden)
	}

	if input.Email == "" || input.Password == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: email, password and name are required", apperror.ErrInvalidInput)
	}

	if _, err := s.userRepo.FindByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &entity.Profile{
		Name:           input.Name,
		Bio:            s.sanitizer.Sanitize(input.Bio),
		Qualifications: s.sanitizer.Sanitize(input.Qualifications),
		DateOfJoining:  input.DateOfJoining,
		Experience:     s.sanitizer.Sanitize(input.Experience),
		Research:       s.sanitizer.Sanitize(input.Research),
	}
	if input.Department != "" {
		profile.Department = input.Department
	}
	if input.Title != "" {
		profile.Title = input.Title
	}

	// Store files up front; a storage failure aborts the create before any
	// row references the path.
	stored, err := s.storeSlotFiles(ctx, profile, files)
	if err != nil {
		return nil, err
	}

	// Manager-onboarded accounts skip the OTP flow.
	user := &entity.User{
		Email:         input.Email,
		PasswordHash:  string(hashedPassword),
		PhoneNumber:   input.PhoneNumber,
		Role:          entity.RoleStaff,
		EmailVerified: true,
	}

	if err := s.userRepo.Create(ctx, user, profile); err != nil {
		// Transaction failed: the files written above would be orphans.
		for _, p := range stored {
			if derr := s.fileStorage.Delete(ctx, p); derr != nil {
				log.Printf("failed to clean up file after aborted create: %v", derr)
			}
		}
		return nil, err
	}

	// Onboarding email carries the initial password. Delivery is best-effort
	// and never fails the create.
	if s.sender != nil {
		text := fmt.Sprintf("Welcome %s. Your faculty account has been created.\nEmail: %s\nInitial password: %s\nPlease change it after your first login.", input.Name, input.Email, input.Password)
		s.sender.SendAsync(input.Email, "Your faculty account", text, "")
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("Faculty profile created for %s (%s)", profile.Name, profile.Department)
		if err := s.notifier.NotifyManagers(ctx, entity.NotificationOnboarding, msg); err != nil {
			log.Printf("failed to notify managers about onboarding: %v", err)
		}
	}

	s.indexProfile(profile)

	return s.buildResponse(ctx, profile), nil
}

func (s *profileService) GetProfile(ctx context.Context, id uint) (*profileDto.ProfileResponse, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, asNotFound(err)
	}

	return s.buildResponse(ctx, profile), nil
}

func (s *profileService) ListProfiles(ctx context.Context, query string) ([]*profileDto.ProfileResponse, error) {
	var (
		profiles []*entity.Profile
		err      error
	)

	if query != "" {
		profiles, err = s.repo.Search(ctx, query)
	} else {
		profiles, err = s.repo.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]*profileDto.ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		responses = append(responses, s.buildResponse(ctx, p))
	}

	return responses, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, id uint, actor entity.Actor, input profileDto.UpdateProfileInput, files map[string]profileDto.DocumentFile) (*profileDto.ProfileResponse, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, asNotFound(err)
	}

	if err := s.gateWrite(ctx, profile, actor); err != nil {
		return nil, err
	}

	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", apperror.ErrInvalidInput)
	}

	values := map[string]interface{}{
		"name":            input.Name,
		"department":      input.Department,
		"title":           input.Title,
		"bio":             s.sanitizer.Sanitize(input.Bio),
		"qualifications":  s.sanitizer.Sanitize(input.Qualifications),
		"date_of_joining": input.DateOfJoining,
		"experience":      s.sanitizer.Sanitize(input.Experience),
		"research":        s.sanitizer.Sanitize(input.Research),
		// Any successful update resolves a pending edit request.
		"edit_requested": false,
	}

	userValues := map[string]interface{}{}
	if input.Email != "" {
		existing, err := s.userRepo.FindByEmail(ctx, input.Email)
		if err == nil && existing.ID != profile.UserID {
			return nil, fmt.Errorf("%w: email already exists for another user", apperror.ErrConflict)
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		userValues["email"] = input.Email
	}
	if input.PhoneNumber != "" {
		userValues["phone_number"] = input.PhoneNumber
	}

	// Replace slot files one-for-one: store the new file, release the old
	// one, record the new path. Slots absent from the request keep theirs.
	for slot, file := range files {
		if !entity.IsDocumentSlot(slot) {
			return nil, fmt.Errorf("%w: unknown document slot %q", apperror.ErrInvalidInput, slot)
		}

		newPath, err := s.fileStorage.Save(ctx, file.Reader, file.FileName)
		if err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", slot, err)
		}

		if old := profile.DocumentPath(slot); old != nil && *old != "" {
			if derr := s.fileStorage.Delete(ctx, *old); derr != nil {
				log.Printf("failed to delete replaced file %s: %v", *old, derr)
			}
		}

		values[slot] = newPath
	}

	if err := s.repo.UpdateWithUser(ctx, id, values, profile.UserID, userValues); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, asNotFound(err)
	}

	s.indexProfile(updated)

	return s.buildResponse(ctx, updated), nil
}

func (s *profileService) DeleteProfile(ctx context.Context, id uint, actor entity.Actor) error {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return asNotFound(err)
	}

	// Deletion bypasses the lock gate; only ownership applies.
	if actor.ID != profile.UserID && !actor.IsManager() {
		return apperror.ErrForbidden
	}

	s.deleteProfileFiles(ctx, profile)

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.DeleteProfile(id); err != nil {
			log.Printf("failed to deindex profile %d: %v", id, err)
		}
	}

	return nil
}

func (s *profileService) RemoveProfileFile(ctx context.Context, id uint, slot string, actor entity.Actor) error {
	if !entity.IsDocumentSlot(slot) {
		return fmt.Errorf("%w: unknown document slot %q", apperror.ErrInvalidInput, slot)
	}

	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return asNotFound(err)
	}

	if actor.ID != profile.UserID && !actor.IsManager() {
		return apperror.ErrForbidden
	}

	if old := profile.DocumentPath(slot); old != nil && *old != "" {
		if derr := s.fileStorage.Delete(ctx, *old); derr != nil {
			log.Printf("failed to delete file %s: %v", *old, derr)
		}
	}

	return s.repo.UpdateColumns(ctx, id, map[string]interface{}{slot: nil})
}

// CleanupOrphanFiles removes stored files no profile row references. It runs
// periodically and on demand to repair drift from interrupted writes.
func (s *profileService) CleanupOrphanFiles(ctx context.Context) error {
	profiles, err := s.repo.FindAll(ctx)
	if err != nil {
		return err
	}

	referenced := make(map[string]bool)
	for _, p := range profiles {
		for _, stored := range p.DocumentPaths() {
			referenced[stored] = true
		}
	}

	stored, err := s.fileStorage.List()
	if err != nil {
		return err
	}

	for _, f := range stored {
		if referenced[f] {
			continue
		}
		if path.Base(f) == storage.PlaceholderFile {
			continue
		}
		if err := s.fileStorage.Delete(ctx, f); err != nil {
			log.Printf("failed to delete orphan file %s: %v", f, err)
		}
	}

	return nil
}

// storeSlotFiles writes every uploaded file and records its path on the
// profile. Returns the stored paths so a failed create can clean them up.
func (s *profileService) storeSlotFiles(ctx context.Context, profile *entity.Profile, files map[string]profileDto.DocumentFile) ([]string, error) {
	var stored []string
	for slot, file := range files {
		if !entity.IsDocumentSlot(slot) {
			return stored, fmt.Errorf("%w: unknown document slot %q", apperror.ErrInvalidInput, slot)
		}

		p, err := s.fileStorage.Save(ctx, file.Reader, file.FileName)
		if err != nil {
			// Abort: remove what was stored so far.
			for _, sp := range stored {
				if derr := s.fileStorage.Delete(ctx, sp); derr != nil {
					log.Printf("failed to clean up file after storage error: %v", derr)
				}
			}
			return nil, fmt.Errorf("failed to store %s: %w", slot, err)
		}

		stored = append(stored, p)
		profile.SetDocumentPath(slot, &p)
	}

	return stored, nil
}

// deleteProfileFiles removes every referenced slot file. Missing files are
// not errors; other failures are logged and swallowed.
func (s *profileService) deleteProfileFiles(ctx context.Context, profile *entity.Profile) {
	for _, stored := range profile.DocumentPaths() {
		if err := s.fileStorage.Delete(ctx, stored); err != nil {
			log.Printf("failed to delete file %s: %v", stored, err)
		}
	}
}

func (s *profileService) indexProfile(profile *entity.Profile) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexProfile(profile); err != nil {
		log.Printf("failed to index profile %d: %v", profile.ID, err)
	}
}

func (s *profileService) buildResponse(ctx context.Context, profile *entity.Profile) *profileDto.ProfileResponse {
	resp := &profileDto.ProfileResponse{Profile: profile}

	if user, err := s.userRepo.FindByID(ctx, profile.UserID); err == nil {
		resp.Email = user.Email
		resp.PhoneNumber = user.PhoneNumber
		resp.UserRole = user.Role
	}

	return resp
}

func asNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	return err
}
