package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/genaiplatform/backend/internal/models"
)

// CatalogService is the admin-facing registry of AI service entries. Users
// reach the catalog only through the entitlement resolver.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListAll lists every catalog entry, active or not.
func (s *CatalogService) ListAll() ([]models.AIService, error) {
	var list []models.AIService
	err := s.db.Order("provider ASC, name ASC").Find(&list).Error
	return list, err
}

// Get loads one catalog entry by id.
func (s *CatalogService) Get(serviceID uuid.UUID) (*models.AIService, error) {
	var service models.AIService
	if err := s.db.First(&service, "id = ?", serviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &service, nil
}

// Create registers a new AI service.
func (s *CatalogService) Create(service *models.AIService) error {
	return s.db.Create(service).Error
}

// Update applies field changes to a catalog entry.
func (s *CatalogService) Update(serviceID uuid.UUID, updates map[string]interface{}) (*models.AIService, error) {
	service, err := s.Get(serviceID)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.Model(service).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(serviceID)
}
