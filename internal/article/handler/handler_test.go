package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/draftdesk/draftdesk/backend/go-services/internal/article/service"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/collaborators"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	g := gin.New()
	people := collaborators.NewService(collaborators.NewMemoryRepository())
	RegisterArticleRoutes(g, service.NewMemoryService(people), people)
	return g
}

func do(t *testing.T, g *gin.Engine, method, path, collaborator, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if collaborator != "" {
		req.Header.Set("X-Collaborator-ID", collaborator)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	var out map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(w.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestArticleHandler_EditFlow(t *testing.T) {
	g := newRouter()

	w, _ := do(t, g, http.MethodPost, "/api/collaborators", "alice", `{"name":"Alice"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, g, http.MethodPost, "/api/collaborators", "bob", `{"name":"Bob"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// create
	w, created := do(t, g, http.MethodPost, "/api/articles", "alice", `{"title":"Notes","body":"hi"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	require.Equal(t, "draft", created["status"])

	// alice opens for edit and takes the lock
	w, opened := do(t, g, http.MethodGet, "/api/articles/"+id+"/edit", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "acquired", opened["lock"].(map[string]interface{})["status"])

	// bob sees who is editing
	w, opened = do(t, g, http.MethodGet, "/api/articles/"+id+"/edit", "bob", "")
	require.Equal(t, http.StatusOK, w.Code)
	lock := opened["lock"].(map[string]interface{})
	require.Equal(t, "conflict", lock["status"])
	require.Equal(t, "Alice", lock["heldByName"])

	// bob cannot save while alice holds the lock
	w, body := do(t, g, http.MethodPatch, "/api/articles/"+id, "bob", `{"title":"Bob","status":"draft","saveCount":1}`)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "article_locked", body["code"])
	require.Equal(t, "Alice", body["lockedUser"].(map[string]interface{})["name"])

	// alice saves
	w, body = do(t, g, http.MethodPatch, "/api/articles/"+id, "alice", `{"title":"Notes v1","body":"more","status":"draft","saveCount":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), body["revision"])

	// replaying the same save count is stale
	w, body = do(t, g, http.MethodPatch, "/api/articles/"+id, "alice", `{"title":"Notes v1","status":"draft","saveCount":1}`)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "save_count_expired", body["code"])

	// invalid content is reported per field
	w, body = do(t, g, http.MethodPatch, "/api/articles/"+id, "alice", `{"title":"x","status":"gone","saveCount":2}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid_article", body["code"])
	require.Contains(t, body["fields"], "status")

	// bob forces the takeover, which keeps alice's revision in history
	w, body = do(t, g, http.MethodPatch, "/api/articles/"+id, "bob", `{"title":"Bob's","status":"draft","saveCount":2,"force":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(2), body["revision"])

	// versions: created + handoff
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/articles/"+id+"/versions", nil)
	req.Header.Set("X-Collaborator-ID", "alice")
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var versions []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &versions))
	require.Len(t, versions, 2)
	require.Equal(t, "created", versions[0]["reason"])
	require.Equal(t, "handoff", versions[1]["reason"])
	require.Equal(t, "alice", versions[1]["editor"])
	require.Equal(t, float64(1), versions[1]["revision"])

	w, _ = do(t, g, http.MethodGet, "/api/articles/"+id+"/versions?after=abc", "alice", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	// get
	w, got := do(t, g, http.MethodGet, "/api/articles/"+id, "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Bob's", got["title"])
	require.Equal(t, "bob", got["lastEditor"])
}

func TestArticleHandler_ErrorsAndBatch(t *testing.T) {
	g := newRouter()

	w, body := do(t, g, http.MethodGet, "/api/articles/missing", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "unauthenticated", body["code"])

	w, body = do(t, g, http.MethodGet, "/api/articles/missing", "alice", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "not_found", body["code"])

	// unknown collaborators cannot create articles
	w, body = do(t, g, http.MethodPost, "/api/articles", "ghost", `{"title":"x"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "not_found", body["code"])

	w, _ = do(t, g, http.MethodPost, "/api/collaborators", "alice", `{"name":"Alice"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, g, http.MethodPost, "/api/collaborators", "alice", `{"name":""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, created := do(t, g, http.MethodPost, "/api/articles", "alice", `{"title":"To trash"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := created["id"].(string)

	w, body = do(t, g, http.MethodPost, "/api/articles/batch/trash", "alice", `{"ids":["`+id+`"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), body["updated"])

	w, body = do(t, g, http.MethodPost, "/api/articles/batch/explode", "alice", `{"ids":["`+id+`"]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid_article", body["code"])

	w, body = do(t, g, http.MethodDelete, "/api/articles/trash", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), body["destroyed"])

	w, _ = do(t, g, http.MethodGet, "/api/articles/"+id, "alice", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestArticleHandler_SaveKeepsOmittedFields(t *testing.T) {
	g := newRouter()
	w, _ := do(t, g, http.MethodPost, "/api/collaborators", "alice", `{"name":"Alice"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, created := do(t, g, http.MethodPost, "/api/articles", "alice", `{"title":"Keep me","body":"old body"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := created["id"].(string)

	w, _ = do(t, g, http.MethodPost, "/api/articles/batch/category", "alice", `{"ids":["`+id+`"],"categoryId":"news"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// the editor only sends what changed
	w, _ = do(t, g, http.MethodPatch, "/api/articles/"+id, "alice", `{"saveCount":1,"body":"new body","status":"draft"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, got := do(t, g, http.MethodGet, "/api/articles/"+id, "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Keep me", got["title"])
	require.Equal(t, "new body", got["body"])
	require.Equal(t, "news", got["categoryId"])

	// clearing the category has to be explicit
	w, _ = do(t, g, http.MethodPatch, "/api/articles/"+id, "alice", `{"saveCount":2,"categoryId":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	_, got = do(t, g, http.MethodGet, "/api/articles/"+id, "alice", "")
	require.Nil(t, got["categoryId"])
	require.Equal(t, "Keep me", got["title"])
}

func TestArticleHandler_ArchivedVersionWithoutArchive(t *testing.T) {
	g := newRouter()

	w, body := do(t, g, http.MethodGet, "/api/articles/a1/versions/1/archive", "alice", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "not_found", body["code"])

	w, body = do(t, g, http.MethodGet, "/api/articles/a1/versions/zero/archive", "alice", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid_article", body["code"])
}
