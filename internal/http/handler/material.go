package handler

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"materialapi/internal/service"
)

// HealthCheck reports readiness by pinging the database.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListApprovedMaterials serves the reader-facing list: approved only, newest first.
func ListApprovedMaterials(svc service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListApproved(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(items)
	}
}

// ListPendingMaterials serves the moderation queue, newest first.
func ListPendingMaterials(svc service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListPending(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(items)
	}
}

// SubmitMaterial accepts a new submission as multipart/form-data (optional
// file field: file) or plain JSON.
func SubmitMaterial(svc service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SubmitInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		var att *service.Attachment
		if fh, err := c.FormFile("file"); err == nil && fh != nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()

			ct := fh.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			att = &service.Attachment{Reader: f, Filename: fh.Filename, ContentType: ct, Size: fh.Size}
		}

		mat, err := svc.Submit(c.UserContext(), in, att)
		if err != nil {
			if errors.Is(err, service.ErrValidation) {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "title, subject and a valid kind are required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(mat)
	}
}

// GetMaterial returns a single material by ID.
func GetMaterial(svc service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		mat, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "material not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(mat)
	}
}

// statusRequest is the PATCH /materials/:id/status body.
type statusRequest struct {
	Status string `json:"status"`
}

// SetMaterialStatus moves a material between pending, approved and rejected.
func SetMaterialStatus(svc service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var req statusRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		mat, err := svc.SetStatus(c.UserContext(), id, req.Status)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidStatus):
				return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", "status must be pending, approved or rejected")
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "material not found")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(mat)
	}
}

// DownloadAttachment resolves a stored public attachment path back to its bytes.
func DownloadAttachment(svc service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, info, err := svc.OpenAttachment(c.UserContext(), c.Path())
		if err != nil {
			// Storage failures on this route are indistinguishable from a
			// missing key without poking at backend-specific error types.
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "attachment not found")
		}

		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		if info.Size > 0 {
			return c.SendStream(rc, int(info.Size))
		}
		return c.SendStream(rc)
	}
}
