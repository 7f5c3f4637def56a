package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/storage"
)

// ServeBlob serves objects of the in-memory store through their signed URLs.
// It is registered only when the memory storage driver is active.
func ServeBlob(store *storage.MemoryStorage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := storage.UnescapeKey(c.Params("*"))
		if err != nil || key == "" {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "object not found")
		}
		expires, err := strconv.ParseInt(c.Query("expires"), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "invalid signature")
		}

		obj, err := store.Open(key, expires, c.Query("signature"))
		switch {
		case errors.Is(err, storage.ErrInvalidSignature):
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "invalid signature")
		case errors.Is(err, storage.ErrURLExpired):
			return writeError(c, fiber.StatusForbidden, "URL_EXPIRED", "url expired")
		case errors.Is(err, storage.ErrObjectNotFound):
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "object not found")
		case err != nil:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		if obj.ContentType != "" {
			c.Set(fiber.HeaderContentType, obj.ContentType)
		}
		c.Set(fiber.HeaderCacheControl, "private, no-store")
		return c.Send(obj.Data)
	}
}
