package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/facultydir/internal/entity"
	profileDto "anoa.com/facultydir/internal/modules/profile/dto"
	"anoa.com/facultydir/pkg/apperror"
)

func TestLockProfileManagerOnly(t *testing.T) {
	repo := newFakeProfileRepo(ownedProfile(1, staffActor.ID))
	svc := newTestService(repo, newFakeUserRepo(), newMemStorage(), &fakeNotifier{})

	if err := svc.LockProfile(context.Background(), 1, true, staffActor); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for staff, got %v", err)
	}
}

func TestLockProfileSetsExpiry(t *testing.T) {
	repo := newFakeProfileRepo(ownedProfile(1, staffActor.ID))
	svc := newTestService(repo, newFakeUserRepo(), newMemStorage(), &fakeNotifier{})

	if err := svc.LockProfile(context.Background(), 1, true, managerActor); err != nil {
		t.Fatalf("LockProfile failed: %v", err)
	}

	got, _ := repo.FindByID(context.Background(), 1)
	if !got.IsLocked {
		t.Error("profile should be locked")
	}
	want := svc.now().Add(24 * time.Hour)
	if got.LockExpiry == nil || !got.LockExpiry.Equal(want) {
		t.Errorf("lock expiry = %v, want %v", got.LockExpiry, want)
	}
}

func TestUnlockProfileClearsExpiry(t *testing.T) {
	p := ownedProfile(1, staffActor.ID)
	p.IsLocked = true
	exp := time.Now().Add(time.Hour)
	p.LockExpiry = &exp
	repo := newFakeProfileRepo(p)
	svc := newTestService(repo, newFakeUserRepo(), newMemStorage(), &fakeNotifier{})

	if err := svc.LockProfile(context.Background(), 1, false, managerActor); err != nil {
		t.Fatalf("LockProfile failed: %v", err)
	}

	got, _ := repo.FindByID(context.Background(), 1)
	if got.IsLocked || got.LockExpiry != nil {
		t.Errorf("unlock should clear both flags, got locked=%v expiry=%v", got.IsLocked, got.LockExpiry)
	}
}

func TestLockAllProfiles(t *testing.T) {
	repo := newFakeProfileRepo(ownedProfile(1, 10), ownedProfile(2, 11))
	svc := newTestService(repo, newFakeUserRepo(), newMemStorage(), &fakeNotifier{})

	if err := svc.LockAllProfiles(context.Background(), true, managerActor); err != nil {
		t.Fatalf("LockAllProfiles failed: %v", err)
	}

	for _, id := range []uint{1, 2} {
		got, _ := repo.FindByID(context.Background(), id)
		if !got.IsLocked || got.LockExpiry == nil {
			t.Errorf("profile %d should be locked with an expiry", id)
		}
	}
}

func TestLockedProfileBlocksOwnerUpdate(t *testing.T) {
	p := ownedProfile(1, staffActor.ID)
	p.IsLocked = true
	repo := newFakeProfileRepo(p)
	svc := newTestService(repo, newFakeUserRepo(), newMemStorage(), &fakeNotifier{})

	_, err := svc.UpdateProfile(context.Background(), 1, staffActor, profileDto.UpdateProfileInput{Name: p.Name}, nil)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLockedProfileAllowsManagerUpdate(t *testing.T) {
	p := ownedProfile(1, staffActor.ID)
	p.IsLocked = true
	repo := newFakeProfileRepo(p)
	users := newFakeUserRepo(&entity.User{ID: staffActor.ID, Email: "asha@faculty.local"})
	svc := newTestService(repo, users, newMemStorage(), &fakeNotifier{})

	if _, err := svc.UpdateProfile(context.Background(), 1, managerActor, profileDto.UpdateProfileInput{Name: p.Name}, nil); err != nil {
		t.Fatalf("manager update on locked profile failed: %v", err)
	}
}

// An expired lock timer clears itself but never restores owner write access;
// only an explicit unlock or approval does that.
func TestExpiredLockNormalizesButStillBlocksOwner(t *testing.T) {
	p := ownedProfile(1, staffActor.ID)
	p.IsLocked = true
	past := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	p.LockExpiry = &past
	repo := newFakeProfileRepo(p)
	svc := newTestService(repo, newFakeUserRepo(), newMemStorage(), &fakeNotifier{})

	_, err := svc.UpdateProfile(context.Background(), 1, staffActor, profileDto.UpdateProfileInput{Name: p.Name}, nil)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden after expiry, got %v", err)
	}

	got, _ := repo.FindByID(context.Background(), 1)
	if got.LockExpiry != nil {
		t.Error("expired lock timer should be cleared")
	}
	if !got.IsLocked {
		t.Error("lock flag must survive timer expiry")
	}
}

func TestRequestEditOwnerOnly(t *testing.T) {
	repo := newFakeProfileRepo(ownedProfile(1, 77))
	svc := newTestService(repo, newFakeUserRepo(), newMemStorage(), &fakeNotifier{})

	if err := svc.RequestEdit(context.Background(), 1, staffActor); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequestEditFlagsProfileAndNotifiesManagers(t *testing.T) {
	repo := newFakeProfileRepo(ownedProfile(1, staffActor.ID))
	notifier := &fakeNotifier{}
	svc := newTestService(repo, newFakeUserRepo(), newMemStorage(), notifier)

	if err := svc.RequestEdit(context.Background(), 1, staffActor); err != nil {
		t.Fatalf("RequestEdit failed: %v", err)
	}

	got, _ := repo.FindByID(context.Background(), 1)
	if !got.EditRequested {
		t.Error("edit_requested should be set")
	}
	if len(notifier.types) != 1 || notifier.types[0] != entity.NotificationEditRequest {
		t.Errorf("expected one edit-request notification, got %v", notifier.types)
	}
}

func TestApproveEditManagerOnly(t *testing.T) {
	repo := newFakeProfileRepo(ownedProfile(1, staffActor.ID))
	svc := newTestService(repo, newFakeUserRepo(), newMemStorage(), &fakeNotifier{})

	if err := svc.ApproveEdit(context.Background(), 1, staffActor); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestApproveEditClearsLockStateAndIsIdempotent(t *testing.T) {
	p := ownedProfile(1, staffActor.ID)
	p.IsLocked = true
	exp := time.Now().Add(time.Hour)
	p.LockExpiry = &exp
	p.EditRequested = true
	repo := newFakeProfileRepo(p)
	svc := newTestService(repo, newFakeUserRepo(), newMemStorage(), &fakeNotifier{})

	for i := 0; i < 2; i++ {
		if err := svc.ApproveEdit(context.Background(), 1, managerActor); err != nil {
			t.Fatalf("ApproveEdit pass %d failed: %v", i+1, err)
		}
	}

	got, _ := repo.FindByID(context.Background(), 1)
	if got.IsLocked || got.LockExpiry != nil || got.EditRequested {
		t.Errorf("approve should clear all lock state, got %+v", got)
	}
}

func TestApproveEditNotFound(t *testing.T) {
	svc := newTestService(newFakeProfileRepo(), newFakeUserRepo(), newMemStorage(), &fakeNotifier{})

	if err := svc.ApproveEdit(context.Background(), 42, managerActor); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
