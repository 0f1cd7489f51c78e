package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"roofradar/internal/blob"
	applog "roofradar/internal/log"
)

type DownloadHandler struct {
	Store  blob.ObjectStore
	Signer *blob.URLSigner
}

// Serve handles GET /downloads/:name. The HMAC signature is the only
// authentication; the bucket itself is never public.
func (h *DownloadHandler) Serve(c *fiber.Ctx) error {
	name := c.Params("name")
	// Object names are flat; anything path-like is an attack.
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		applog.Security(c, "download.name.block", map[string]any{"name": name})
		return c.SendStatus(fiber.StatusNotFound)
	}

	if err := h.Signer.Verify(name, c.Query("exp"), c.Query("sig")); err != nil {
		if errors.Is(err, blob.ErrExpiredLink) {
			return c.Status(fiber.StatusForbidden).SendString("this download link has expired")
		}
		applog.Security(c, "download.sig.invalid", map[string]any{"name": name})
		return c.Status(fiber.StatusForbidden).SendString("invalid download link")
	}

	rc, err := h.Store.Get(c.Context(), name)
	if err != nil {
		applog.Error(c, "download.fetch.fail", err, map[string]any{"name": name})
		return c.Status(fiber.StatusNotFound).SendString("file not found")
	}

	applog.Audit(c, "download.serve", map[string]any{"name": name})
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.SendStream(rc)
}
