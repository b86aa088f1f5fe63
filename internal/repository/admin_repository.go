package repository

import (
	"errors"
	"time"

	"github.com/stitchline/stitchline-server/internal/models"

	"gorm.io/gorm"
)

// AdminRepository is the data access interface for back-office accounts.
type AdminRepository interface {
	GetByID(id uint) (*models.Admin, error)
	GetByUsername(username string) (*models.Admin, error)
	UpdatePassword(id uint, hash string) error
	TouchLogin(id uint, ip string) error
}

// GormAdminRepository is the GORM implementation.
type GormAdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates an admin repository.
func NewAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

// GetByID loads an admin account.
func (r *GormAdminRepository) GetByID(id uint) (*models.Admin, error) {
	if id == 0 {
		return nil, errors.New("invalid admin id")
	}
	var admin models.Admin
	if err := r.db.First(&admin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

// GetByUsername loads an admin account by login name.
func (r *GormAdminRepository) GetByUsername(username string) (*models.Admin, error) {
	if username == "" {
		return nil, errors.New("invalid username")
	}
	var admin models.Admin
	if err := r.db.Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

// UpdatePassword replaces the stored password hash.
func (r *GormAdminRepository) UpdatePassword(id uint, hash string) error {
	if id == 0 || hash == "" {
		return errors.New("invalid password params")
	}
	return r.db.Model(&models.Admin{}).Where("id = ?", id).Update("password", hash).Error
}

// TouchLogin records the latest successful login.
func (r *GormAdminRepository) TouchLogin(id uint, ip string) error {
	if id == 0 {
		return errors.New("invalid admin id")
	}
	now := time.Now()
	return r.db.Model(&models.Admin{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_login_at": &now,
		"last_login_ip": ip,
	}).Error
}
