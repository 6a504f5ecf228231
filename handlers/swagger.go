package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the article service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>draftdesk-articles · Swagger</title>
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

// Minimal OpenAPI document describing the article editing endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "draftdesk-articles", "version": "v0.1.0" },
  "components": {
    "parameters": {
      "collaborator": { "name": "X-Collaborator-ID", "in": "header", "required": true, "schema": {"type":"string"} }
    },
    "schemas": {
      "Content": {"type":"object","properties":{"title":{"type":"string"},"body":{"type":"string"},"urlName":{"type":"string"},"status":{"type":"string","enum":["draft","publish","trash"]},"categoryId":{"type":"string"}}},
      "Error": {"type":"object","properties":{"code":{"type":"string","enum":["article_locked","save_count_expired","invalid_article","not_found"]},"message":{"type":"string"},"lockedUser":{"type":"object","properties":{"id":{"type":"string"},"name":{"type":"string"}}},"fields":{"type":"object"}}}
    }
  },
  "paths": {
    "/api/collaborators": {
      "post": { "summary": "Register or rename a collaborator", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"id":{"type":"string"},"name":{"type":"string"},"email":{"type":"string"}}}}}}, "responses": { "200": { "description": "collaborator" }, "400": { "description": "invalid name" } } }
    },
    "/api/articles": {
      "post": { "summary": "Create an article", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Content"}}}}, "responses": { "201": { "description": "article at revision 0" }, "400": { "description": "invalid_article" } } }
    },
    "/api/articles/{id}": {
      "get": { "summary": "Get an article", "responses": { "200": { "description": "article" }, "404": { "description": "not_found" } } },
      "patch": { "summary": "Submit an edit; omitted content fields keep their stored values", "requestBody": { "content": { "application/json": { "schema": {"allOf":[{"$ref":"#/components/schemas/Content"},{"type":"object","properties":{"saveCount":{"type":"integer"},"force":{"type":"boolean"}}}]}}}}, "responses": { "200": { "description": "committed revision" }, "409": { "description": "article_locked or save_count_expired" }, "400": { "description": "invalid_article" } } }
    },
    "/api/articles/{id}/edit": {
      "get": { "summary": "Open an article for editing and take the soft lock", "responses": { "200": { "description": "article and lock status" } } }
    },
    "/api/articles/{id}/versions": {
      "get": { "summary": "List snapshots after a sequence number", "parameters": [{"name":"after","in":"query","schema":{"type":"integer"}}], "responses": { "200": { "description": "snapshots in creation order" } } }
    },
    "/api/articles/{id}/versions/{seq}/archive": {
      "get": { "summary": "Read a snapshot back from the object store archive", "responses": { "200": { "description": "archived snapshot" }, "404": { "description": "not_found or archive not configured" } } }
    },
    "/api/articles/batch/{action}": {
      "post": { "summary": "Batch trash, publish, draft, restore, category or destroy", "responses": { "200": { "description": "number of articles changed" } } }
    },
    "/api/articles/trash": {
      "delete": { "summary": "Permanently delete every trashed article", "responses": { "200": { "description": "number destroyed" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
