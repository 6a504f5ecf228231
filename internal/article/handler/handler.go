package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/draftdesk/draftdesk/backend/go-services/internal/article"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/article/service"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/collaborators"
	"github.com/draftdesk/draftdesk/backend/go-services/pkg/logger"
	"github.com/draftdesk/draftdesk/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
)

var log = logger.With("http")

// editRequest carries only the fields the editor sends; omitted fields keep
// their stored values.
type editRequest struct {
	article.ContentPatch
	SaveCount int64 `json:"saveCount"`
	Force     bool  `json:"force"`
}

type batchRequest struct {
	IDs        []string `json:"ids"`
	CategoryID string   `json:"categoryId"`
}

// RegisterArticleRoutes registers the article and collaborator endpoints. All of
// them require the collaborator header.
func RegisterArticleRoutes(r *gin.Engine, svc service.Service, people *collaborators.Service) {
	api := r.Group("/api", middleware.RequireCollaborator())

	api.POST("/collaborators", func(c *gin.Context) {
		var req struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": article.CodeInvalid, "message": err.Error()})
			return
		}
		if req.ID == "" {
			req.ID = middleware.CollaboratorID(c)
		}
		collab, err := people.Register(c.Request.Context(), req.ID, req.Name, req.Email)
		if err != nil {
			if errors.Is(err, collaborators.ErrInvalidName) {
				c.JSON(http.StatusBadRequest, gin.H{"code": article.CodeInvalid, "message": err.Error()})
				return
			}
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, collab)
	})

	articles := api.Group("/articles")

	articles.POST("", func(c *gin.Context) {
		var req article.Content
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": article.CodeInvalid, "message": err.Error()})
			return
		}
		a, err := svc.Create(c.Request.Context(), middleware.CollaboratorID(c), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, a)
	})

	articles.GET("/:id", func(c *gin.Context) {
		a, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	})

	articles.GET("/:id/edit", func(c *gin.Context) {
		res, err := svc.OpenForEdit(c.Request.Context(), c.Param("id"), middleware.CollaboratorID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	articles.PATCH("/:id", func(c *gin.Context) {
		var req editRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": article.CodeInvalid, "message": err.Error()})
			return
		}
		res, err := svc.SubmitEdit(c.Request.Context(), service.EditRequest{
			ArticleID:        c.Param("id"),
			CollaboratorID:   middleware.CollaboratorID(c),
			Changes:          req.ContentPatch,
			ExpectedRevision: req.SaveCount,
			Force:            req.Force,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "revision": res.Revision, "snapshots": res.Snapshots})
	})

	articles.GET("/:id/versions", func(c *gin.Context) {
		var after int64
		if v := c.Query("after"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"code": article.CodeInvalid, "message": "after must be a non-negative integer"})
				return
			}
			after = n
		}
		list, err := svc.ListVersions(c.Request.Context(), c.Param("id"), after)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	articles.GET("/:id/versions/:seq/archive", func(c *gin.Context) {
		seq, err := strconv.ParseInt(c.Param("seq"), 10, 64)
		if err != nil || seq < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"code": article.CodeInvalid, "message": "seq must be a positive integer"})
			return
		}
		snap, err := svc.ArchivedVersion(c.Request.Context(), c.Param("id"), seq)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	articles.POST("/batch/:action", func(c *gin.Context) {
		var req batchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": article.CodeInvalid, "message": err.Error()})
			return
		}
		n, err := svc.Batch(c.Request.Context(), service.BatchAction(c.Param("action")), req.IDs, req.CategoryID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": n})
	})

	articles.DELETE("/trash", func(c *gin.Context) {
		n, err := svc.EmptyTrash(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"destroyed": n})
	})
}

// writeError renders an edit outcome as {code, message} with the holder of the
// lock or the offending fields when relevant.
func writeError(c *gin.Context, err error) {
	code, ok := article.CodeOf(err)
	if !ok {
		log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "message": "internal error"})
		return
	}
	body := gin.H{"code": code, "message": err.Error()}
	status := http.StatusBadRequest
	switch code {
	case article.CodeLocked:
		var lce *article.LockConflictError
		errors.As(err, &lce)
		body["lockedUser"] = gin.H{"id": lce.HeldBy, "name": lce.HeldByName}
		status = http.StatusConflict
	case article.CodeStaleWrite:
		body["message"] = "article was saved elsewhere, reload to get the latest version"
		status = http.StatusConflict
	case article.CodeInvalid:
		var ve *article.ValidationError
		errors.As(err, &ve)
		body["fields"] = ve.Fields
	case article.CodeNotFound:
		status = http.StatusNotFound
	}
	c.JSON(status, body)
}
