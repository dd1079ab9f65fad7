// Package storage persists complaints. Every backend satisfies Storage and
// serializes writers over the full read-modify-write cycle, so concurrent
// registrations and responses never lose an update.
package storage

import (
	"context"
	"errors"
	"fmt"
	"ouvidoria/backend/internal/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage is the record store contract used by the complaint registry.
type Storage interface {
	// Append persists a new complaint atomically. It returns ErrDuplicateProtocol
	// if the protocol is already taken.
	Append(ctx context.Context, c *models.Complaint) error
	// Get returns the complaint with the given protocol, or (nil, nil) if absent.
	Get(ctx context.Context, protocol string) (*models.Complaint, error)
	FindByNationalID(ctx context.Context, nationalID string) ([]models.Complaint, error)
	FindByEnrollmentID(ctx context.Context, enrollmentID string) ([]models.Complaint, error)
	// UpdateResponse attaches a response and marks the complaint responded.
	// It returns ErrNotFound when no complaint carries the protocol.
	UpdateResponse(ctx context.Context, protocol, response string, at time.Time) error
	// List returns every complaint, newest first.
	List(ctx context.Context) ([]models.Complaint, error)
}

// Service is the PostgreSQL-backed Storage built on GORM. Row-level locks
// provide the write isolation the file store gets from its mutex.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Migrate creates or updates the complaints table.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(&models.Complaint{})
}

func (s *Service) Append(ctx context.Context, c *models.Complaint) error {
	err := s.DB.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("append %s: %w", c.Protocol, ErrDuplicateProtocol)
	}
	if err != nil {
		return fmt.Errorf("append %s: %w", c.Protocol, err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, protocol string) (*models.Complaint, error) {
	var c models.Complaint
	err := s.DB.WithContext(ctx).Where("protocol = ?", protocol).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", protocol, err)
	}
	return &c, nil
}

func (s *Service) FindByNationalID(ctx context.Context, nationalID string) ([]models.Complaint, error) {
	return s.findBy(ctx, "national_id", nationalID)
}

func (s *Service) FindByEnrollmentID(ctx context.Context, enrollmentID string) ([]models.Complaint, error) {
	return s.findBy(ctx, "enrollment_id", enrollmentID)
}

func (s *Service) findBy(ctx context.Context, column, value string) ([]models.Complaint, error) {
	var out []models.Complaint
	err := s.DB.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Order("created_at asc").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find by %s: %w", column, err)
	}
	return out, nil
}

// UpdateResponse locks the row with SELECT ... FOR UPDATE so a concurrent
// response cannot interleave between the read and the write.
func (s *Service) UpdateResponse(ctx context.Context, protocol, response string, at time.Time) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Complaint
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("protocol = ?", protocol).
			First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("update %s: %w", protocol, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("update %s: %w", protocol, err)
		}

		c.Respond(response, at)
		if err := tx.Save(&c).Error; err != nil {
			return fmt.Errorf("update %s: %w", protocol, err)
		}
		return nil
	})
}

func (s *Service) List(ctx context.Context) ([]models.Complaint, error) {
	var out []models.Complaint
	if err := s.DB.WithContext(ctx).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return out, nil
}
