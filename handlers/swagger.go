package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the question API.
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
    <title>askly Swagger</title>
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

// Callers identify themselves with the X-User-ID header (a user ObjectID hex).
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "askly", "version": "v0.1.0" },
  "components": {
    "parameters": {
      "UserID": { "name": "X-User-ID", "in": "header", "required": true, "schema": { "type": "string" } },
      "ID": { "name": "id", "in": "path", "required": true, "schema": { "type": "string" } },
      "Page": { "name": "page", "in": "query", "schema": { "type": "integer", "minimum": 1 } },
      "Limit": { "name": "limit", "in": "query", "schema": { "type": "integer", "maximum": 100 } }
    }
  },
  "paths": {
    "/api/v1/questions": {
      "get": { "summary": "List questions newest first", "parameters": [{"$ref":"#/components/parameters/Page"},{"$ref":"#/components/parameters/Limit"},{"name":"authorId","in":"query","schema":{"type":"string"}},{"name":"tagId","in":"query","schema":{"type":"string"}}], "responses": { "200": { "description": "page of questions with tags" } } },
      "post": { "summary": "Create a question", "parameters": [{"$ref":"#/components/parameters/UserID"}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["title","content"],"properties":{"title":{"type":"string"},"content":{"type":"string"},"tags":{"type":"array","maxItems":5,"items":{"type":"string"}}}}}}}, "responses": { "201": { "description": "created" }, "400": { "description": "invalid input" }, "404": { "description": "unknown user" } } }
    },
    "/api/v1/questions/bulk-delete": {
      "post": { "summary": "Delete matching questions with their answers and interactions", "parameters": [{"$ref":"#/components/parameters/UserID"}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"ids":{"type":"array","items":{"type":"string"}},"authorId":{"type":"string"},"tagId":{"type":"string"}}}}}}, "responses": { "200": { "description": "cascade result" }, "400": { "description": "empty filter" }, "401": { "description": "missing X-User-ID" } } }
    },
    "/api/v1/questions/{id}": {
      "get": { "summary": "Get a question with tags", "parameters": [{"$ref":"#/components/parameters/ID"}], "responses": { "200": { "description": "question" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Edit title, content or tags", "parameters": [{"$ref":"#/components/parameters/ID"},{"$ref":"#/components/parameters/UserID"}], "responses": { "200": { "description": "updated" }, "403": { "description": "not the author" } } },
      "delete": { "summary": "Delete a question and its dependents", "parameters": [{"$ref":"#/components/parameters/ID"},{"$ref":"#/components/parameters/UserID"}], "responses": { "200": { "description": "cascade result" }, "403": { "description": "not the author" } } }
    },
    "/api/v1/questions/{id}/vote": {
      "post": { "summary": "Upvote, downvote or unvote", "parameters": [{"$ref":"#/components/parameters/ID"},{"$ref":"#/components/parameters/UserID"}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"action":{"type":"string","enum":["upvote","downvote","unvote"]}}}}}}, "responses": { "200": { "description": "new vote state" }, "400": { "description": "rejected transition" }, "409": { "description": "vote in progress" } } }
    },
    "/api/v1/questions/{id}/save": {
      "post": { "summary": "Toggle saved", "parameters": [{"$ref":"#/components/parameters/ID"},{"$ref":"#/components/parameters/UserID"}], "responses": { "200": { "description": "saved state" } } }
    },
    "/api/v1/questions/{id}/view": {
      "post": { "summary": "Count a view", "parameters": [{"$ref":"#/components/parameters/ID"}], "responses": { "204": { "description": "counted" } } }
    },
    "/api/v1/questions/{id}/answers": {
      "get": { "summary": "List answers oldest first", "parameters": [{"$ref":"#/components/parameters/ID"},{"$ref":"#/components/parameters/Page"},{"$ref":"#/components/parameters/Limit"}], "responses": { "200": { "description": "page of answers" } } },
      "post": { "summary": "Answer a question", "parameters": [{"$ref":"#/components/parameters/ID"},{"$ref":"#/components/parameters/UserID"}], "responses": { "201": { "description": "created" } } }
    },
    "/api/v1/tags": { "get": { "summary": "Tags by popularity", "responses": { "200": { "description": "page of tags" } } } },
    "/api/v1/users": { "post": { "summary": "Register a user", "responses": { "201": { "description": "created" } } } },
    "/api/v1/users/{id}": { "get": { "summary": "Get a user", "parameters": [{"$ref":"#/components/parameters/ID"}], "responses": { "200": { "description": "user" } } } },
    "/api/v1/users/{id}/answered-questions": { "get": { "summary": "Questions the user has answered", "parameters": [{"$ref":"#/components/parameters/ID"}], "responses": { "200": { "description": "page of questions" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
