package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cvtailor/internal/models"
	"cvtailor/internal/repositories"
	"cvtailor/internal/services"
)

type TailorHandler struct {
	docRepo       repositories.DocumentRepository
	textExtractor services.TextExtractorService
	coordinator   services.PipelineCoordinator
	worker        services.Worker
}

func NewTailorHandler(
	docRepo repositories.DocumentRepository,
	textExtractor services.TextExtractorService,
	coordinator services.PipelineCoordinator,
	worker services.Worker,
) *TailorHandler {
	return &TailorHandler{
		docRepo:       docRepo,
		textExtractor: textExtractor,
		coordinator:   coordinator,
		worker:        worker,
	}
}

// HandleTailor handles POST /tailor. Admits a tailoring run for the company
// and hands it to the worker. A duplicate in-flight run is skipped, not
// treated as an error.
func (h *TailorHandler) HandleTailor(c *fiber.Ctx) error {
	var req models.TailorRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if req.Company == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "company is required",
		})
	}

	cvDoc, err := h.resolveDocument(req.Company, "cv", req.CVDocumentID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "CV document not found: " + err.Error(),
		})
	}

	jdDoc, err := h.resolveDocument(req.Company, "jd", req.JDDocumentID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "JD document not found: " + err.Error(),
		})
	}

	cvText, err := h.textExtractor.ExtractDocumentText(cvDoc)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Failed to extract CV text: " + err.Error(),
		})
	}

	jdText, err := h.textExtractor.ExtractDocumentText(jdDoc)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Failed to extract JD text: " + err.Error(),
		})
	}

	run, err := h.coordinator.Submit(c.Context(), services.SubmitInput{
		Company:      req.Company,
		OriginalCV:   cvText,
		JDText:       jdText,
		CVDocumentID: cvDoc.ID,
		JDDocumentID: jdDoc.ID,
	})
	if err != nil {
		if errors.Is(err, services.ErrDuplicateRun) {
			return c.Status(fiber.StatusOK).JSON(models.TailorResponse{
				Company: req.Company,
				Status:  "duplicate_run_skipped",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start tailoring run",
		})
	}

	h.worker.EnqueueRun(run.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.TailorResponse{
		ID:      run.ID.String(),
		Company: run.Company,
		Status:  string(run.Status),
	})
}

// resolveDocument looks up a document by id, or falls back to the company's
// most recent upload of that type when no id was supplied.
func (h *TailorHandler) resolveDocument(company, docType, id string) (*models.Document, error) {
	if id == "" {
		return h.docRepo.FindLatest(company, docType)
	}

	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid %s_document_id format", docType)
	}
	return h.docRepo.FindByID(docID)
}
