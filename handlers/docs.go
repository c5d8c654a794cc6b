package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skyfield/listenerd/internal/attachments"
	"github.com/skyfield/listenerd/internal/document"
	"github.com/skyfield/listenerd/internal/registry"
	"github.com/skyfield/listenerd/internal/validation"
	"github.com/skyfield/listenerd/internal/views"
	"github.com/skyfield/listenerd/pkg/logger"
)

// DocsHandler exposes the registry over HTTP. The write endpoints run every
// body through the validation hooks; rejection kinds map onto status codes
// (unauthorized -> 401, forbidden -> 403) with the hook message as the error.
type DocsHandler struct {
	svc   *registry.Service
	index views.Index        // optional; nil disables the view endpoint
	store *attachments.Store // optional; nil disables attachment endpoints
}

func NewDocsHandler(svc *registry.Service, index views.Index, store *attachments.Store) *DocsHandler {
	return &DocsHandler{svc: svc, index: index, store: store}
}

// Register routes under /db
func (h *DocsHandler) Register(rg *gin.RouterGroup, authed ...gin.HandlerFunc) {
	db := rg.Group("/db")
	db.GET("/docs", h.List)
	db.GET("/docs/:id", h.Get)
	db.GET("/views/listeners/by_callsign", h.ByCallsign)

	w := db.Group("/", authed...)
	w.PUT("/docs/:id", h.Put)
	w.DELETE("/docs/:id", h.Delete)
	if h.store != nil {
		w.PUT("/docs/:id/attachments/:name", h.PutAttachment)
		db.GET("/docs/:id/attachments/:name", h.GetAttachment)
	}
}

// Put stores a new revision of the document under :id
func (h *DocsHandler) Put(c *gin.Context) {
	var doc document.Doc
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := userFrom(c)
	rev, created, err := h.svc.Put(c.Request.Context(), c.Param("id"), doc, user)
	if err != nil {
		h.writeError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"id": c.Param("id"), "rev": rev})
}

// Get returns the current revision of a document
func (h *DocsHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// List returns all documents of the requested type
func (h *DocsHandler) List(c *gin.Context) {
	docType := c.Query("type")
	if docType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type query parameter required"})
		return
	}
	docs, err := h.svc.ListByType(c.Request.Context(), docType)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": docs, "total": len(docs)})
}

// Delete removes a document; the tombstone runs through the same hooks as edits
func (h *DocsHandler) Delete(c *gin.Context) {
	user := userFrom(c)
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), user); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ByCallsign returns listener view rows for a callsign, ordered by creation time
func (h *DocsHandler) ByCallsign(c *gin.Context) {
	if h.index == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "view index not configured"})
		return
	}
	callsign := c.Query("callsign")
	if callsign == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "callsign query parameter required"})
		return
	}
	rows, err := h.index.ByCallsign(c.Request.Context(), callsign)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "view lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "total": len(rows)})
}

// PutAttachment streams the request body into the attachment store
func (h *DocsHandler) PutAttachment(c *gin.Context) {
	id := c.Param("id")
	// attachments belong to existing documents only
	if _, err := h.svc.Get(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	size := c.Request.ContentLength
	if size <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content-Length required"})
		return
	}
	contentType := c.ContentType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := h.store.Put(c.Request.Context(), id, c.Param("name"), c.Request.Body, size, contentType); err != nil {
		logger.Errorf("attachment upload failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "attachment upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "name": c.Param("name")})
}

// GetAttachment redirects to a presigned URL unless ?inline=true is set
func (h *DocsHandler) GetAttachment(c *gin.Context) {
	id := c.Param("id")
	name := c.Param("name")
	if c.Query("inline") == "true" {
		rc, err := h.store.Get(c.Request.Context(), id, name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "attachment not found"})
			return
		}
		defer rc.Close()
		c.DataFromReader(http.StatusOK, -1, "application/octet-stream", rc, nil)
		return
	}
	expires := 15 * time.Minute
	if v := c.Query("expires"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			expires = time.Duration(secs) * time.Second
		}
	}
	u, err := h.store.PresignedURL(c.Request.Context(), id, name, expires)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "attachment not found"})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, u)
}

// writeError maps service errors onto HTTP statuses
func (h *DocsHandler) writeError(c *gin.Context, err error) {
	if rej, ok := validation.AsRejection(err); ok {
		status := http.StatusForbidden
		if rej.Kind == validation.Unauthorized {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": rej.Message})
		return
	}
	switch {
	case errors.Is(err, registry.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, registry.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Document update conflict."})
	default:
		logger.Errorf("registry error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// userFrom extracts the UserContext stored by the auth middleware. Requests
// that skipped authentication get an anonymous context; the hooks decide what
// anonymous users may do.
func userFrom(c *gin.Context) validation.UserContext {
	if v, ok := c.Get("user"); ok {
		if user, ok2 := v.(validation.UserContext); ok2 {
			return user
		}
	}
	return validation.UserContext{}
}
