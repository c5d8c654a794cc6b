package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the registry.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
		c.String(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>listenerd — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the registry endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "listenerd", "version": "v0.1.0" },
  "paths": {
    "/db/docs/{id}": {
      "put": { "summary": "Create or update a document (validated)", "responses": { "200": { "description": "updated" }, "201": { "description": "created" }, "401": { "description": "unauthorized edit" }, "403": { "description": "document rejected" }, "409": { "description": "revision conflict" } } },
      "get": { "summary": "Fetch a document", "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a document (runs validation on the tombstone)", "responses": { "204": { "description": "deleted" }, "401": { "description": "unauthorized" }, "404": { "description": "not found" } } }
    },
    "/db/docs": {
      "get": { "summary": "List documents by type", "responses": { "200": { "description": "rows" } } }
    },
    "/db/views/listeners/by_callsign": {
      "get": { "summary": "Listener view rows for a callsign ordered by creation time", "responses": { "200": { "description": "rows" } } }
    },
    "/db/docs/{id}/attachments/{name}": {
      "put": { "summary": "Upload an attachment", "responses": { "201": { "description": "stored" } } },
      "get": { "summary": "Download an attachment (redirects to presigned URL)", "responses": { "307": { "description": "redirect" }, "404": { "description": "not found" } } }
    },
    "/auth/login": {
      "post": { "summary": "Exchange Keycloak credentials or auth code for tokens", "responses": { "200": { "description": "tokens returned" }, "401": { "description": "authentication failed" } } }
    },
    "/auth/refresh": {
      "post": { "summary": "Refresh access token", "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Logout and invalidate refresh token", "responses": { "200": { "description": "logged out" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
