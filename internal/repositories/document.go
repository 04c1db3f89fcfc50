package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cvtailor/internal/models"
)

type DocumentRepository interface {
	Create(document *models.Document) error
	FindByID(id uuid.UUID) (*models.Document, error)
	FindLatest(company, docType string) (*models.Document, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create implements DocumentRepository.
func (d *documentRepository) Create(document *models.Document) error {
	if err := d.db.Create(&document).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// FindByID implements DocumentRepository.
func (d *documentRepository) FindByID(id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := d.db.Where("id = ?", id).First(&doc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("document not found: %w", err)
		}

		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc, nil
}

// FindLatest implements DocumentRepository. Returns the most recently
// uploaded document of the given type for a company.
func (d *documentRepository) FindLatest(company, docType string) (*models.Document, error) {
	var doc models.Document
	err := d.db.
		Where("company = ? AND doc_type = ?", company, docType).
		Order("created_at DESC").
		First(&doc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("no %s document found for company %s", docType, company)
		}
		return nil, fmt.Errorf("failed to find latest document: %w", err)
	}

	return &doc, nil
}
