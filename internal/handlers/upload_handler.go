package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cvtailor/internal/models"
	"cvtailor/internal/repositories"
	"cvtailor/internal/services"
)

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	maxFileSize    int64
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	maxFileSize int64,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		maxFileSize:    maxFileSize,
	}
}

// HandleUpload handles POST /upload. Accepts "cv" and/or "jd" files (PDF or
// plain text) plus a "company" form value.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	company := c.FormValue("company")
	if company == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "company is required",
		})
	}

	files := form.File

	var responses []models.UploadResponse

	for _, docType := range []string{"cv", "jd"} {
		fileHeaders, exists := files[docType]
		if !exists || len(fileHeaders) == 0 {
			continue
		}
		file := fileHeaders[0]

		if file.Size > h.maxFileSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("%s file too large. Max size: %d bytes", docType, h.maxFileSize),
			})
		}

		// Save file
		filename, filePath, err := h.storageService.SaveFile(file, docType)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to save %s file: %v", docType, err),
			})
		}

		// Create document record
		doc := models.Document{
			ID:               uuid.New(),
			Company:          company,
			Filename:         filename,
			OriginalFileName: file.Filename,
			DocType:          docType,
			FilePath:         filePath,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}

		if err := h.docRepo.Create(&doc); err != nil {
			// Cleanup uploaded file if database insert fails
			h.storageService.DeleteFile(filename)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to save %s document record: %v", docType, err),
			})
		}

		responses = append(responses, models.UploadResponse{
			ID:           doc.ID.String(),
			Company:      doc.Company,
			Filename:     doc.Filename,
			OriginalName: doc.OriginalFileName,
			DocType:      doc.DocType,
		})
	}

	if len(responses) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No valid files uploaded. Please upload 'cv' and/or 'jd' as PDF or text files.",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Files uploaded successfully",
		"documents": responses,
	})
}
