package bootstrap

import (
	"log"

	"anoa.com/facultydir/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Profile{},
		&entity.Notification{},
		&entity.EmailToken{},
	)
}

// SeedManagerUser creates a default manager account for development
// environments so the admin surface is reachable on a fresh database.
func SeedManagerUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", "manager@faculty.local").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Manager user already exists, skipping seed")
		return nil
	}

	password := "manager123"
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	manager := entity.User{
		Email:         "manager@faculty.local",
		PasswordHash:  string(hashedPasswordBytes),
		Role:          entity.RoleManager,
		EmailVerified: true,
	}

	if err := db.Create(&manager).Error; err != nil {
		return err
	}

	profile := entity.Profile{
		UserID:     manager.ID,
		Name:       "Department Manager",
		Department: "Administration",
		Title:      "Manager",
	}

	if err := db.Create(&profile).Error; err != nil {
		return err
	}

	log.Println("✅ Manager user seeded successfully")
	log.Println("   Email: manager@faculty.local")
	log.Println("   Password: manager123")

	return nil
}
