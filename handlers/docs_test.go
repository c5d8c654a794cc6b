package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/skyfield/listenerd/internal/registry"
	"github.com/skyfield/listenerd/internal/validation"
	"github.com/skyfield/listenerd/internal/views"
)

// asUser injects a UserContext the way the auth middleware would
func asUser(user validation.UserContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", user)
		c.Next()
	}
}

func newTestRouter(t *testing.T, user validation.UserContext) (*gin.Engine, *registry.Service) {
	t.Helper()
	repo := registry.NewMemoryRepo()
	index := views.NewMemoryIndex()
	svc := registry.NewService(repo, validation.Default(), index)
	h := NewDocsHandler(svc, index, nil)

	g := gin.New()
	h.Register(g.Group("/"), asUser(user))
	return g, svc
}

func doJSON(g *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

const validBody = `{
	"type": "listener_info",
	"time_created": 1700000000,
	"time_uploaded": 1700000050,
	"data": {"callsign": "SA6BSS"}
}`

func TestPutDocument_Creates(t *testing.T) {
	g, _ := newTestRouter(t, validation.UserContext{Name: "anyone"})

	w := doJSON(g, "PUT", "/db/docs/listener-1", validBody)
	require.Equal(t, http.StatusCreated, w.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "listener-1", got["id"])
	require.Equal(t, float64(1), got["rev"])

	// readable afterwards
	w2 := doJSON(g, "GET", "/db/docs/listener-1", "")
	require.Equal(t, http.StatusOK, w2.Code)
	require.Contains(t, w2.Body.String(), "SA6BSS")
}

func TestPutDocument_UpdateRequiresAdmin(t *testing.T) {
	admin := validation.UserContext{Name: "root", Roles: []string{"admin"}}
	gAdmin, svc := newTestRouter(t, admin)

	w := doJSON(gAdmin, "PUT", "/db/docs/listener-1", validBody)
	require.Equal(t, http.StatusCreated, w.Code)

	// same store, non-admin user
	plain := gin.New()
	NewDocsHandler(svc, nil, nil).Register(plain.Group("/"), asUser(validation.UserContext{Name: "plain"}))

	update := strings.Replace(validBody, `"time_uploaded": 1700000050`, `"time_uploaded": 1700000060`, 1)
	update = strings.Replace(update, `"type"`, `"_rev": 1, "type"`, 1)
	w2 := doJSON(plain, "PUT", "/db/docs/listener-1", update)
	require.Equal(t, http.StatusUnauthorized, w2.Code)
	require.Contains(t, w2.Body.String(), "Only administrators may edit listener_info docs.")

	// same update with the admin router succeeds
	w3 := doJSON(gAdmin, "PUT", "/db/docs/listener-1", update)
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestPutDocument_ForbiddenBody(t *testing.T) {
	g, _ := newTestRouter(t, validation.UserContext{Name: "anyone"})

	body := `{"type": "listener_info", "time_uploaded": 1700000050, "data": {"callsign": "SA6BSS"}}`
	w := doJSON(g, "PUT", "/db/docs/bad-1", body)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "Must have a time_created field.")

	// rejected write must not be stored
	w2 := doJSON(g, "GET", "/db/docs/bad-1", "")
	require.Equal(t, http.StatusNotFound, w2.Code)
}

func TestPutDocument_RevConflict(t *testing.T) {
	g, _ := newTestRouter(t, validation.UserContext{Name: "root", Roles: []string{"admin"}})

	require.Equal(t, http.StatusCreated, doJSON(g, "PUT", "/db/docs/c-1", validBody).Code)

	// update without _rev -> conflict
	w := doJSON(g, "PUT", "/db/docs/c-1", validBody)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "Document update conflict.")
}

func TestListByType(t *testing.T) {
	g, _ := newTestRouter(t, validation.UserContext{Name: "anyone"})

	require.Equal(t, http.StatusCreated, doJSON(g, "PUT", "/db/docs/l-1", validBody).Code)

	w := doJSON(g, "GET", "/db/docs?type=listener_info", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, 1, got.Total)

	// missing type parameter
	require.Equal(t, http.StatusBadRequest, doJSON(g, "GET", "/db/docs", "").Code)
}

func TestByCallsignView(t *testing.T) {
	g, _ := newTestRouter(t, validation.UserContext{Name: "anyone"})

	require.Equal(t, http.StatusCreated, doJSON(g, "PUT", "/db/docs/v-1", validBody).Code)

	w := doJSON(g, "GET", "/db/views/listeners/by_callsign?callsign=SA6BSS", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "v-1")

	// unknown callsign -> empty rows
	w2 := doJSON(g, "GET", "/db/views/listeners/by_callsign?callsign=NOCALL", "")
	require.Equal(t, http.StatusOK, w2.Code)
	var got struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &got))
	require.Equal(t, 0, got.Total)

	// missing callsign parameter
	require.Equal(t, http.StatusBadRequest, doJSON(g, "GET", "/db/views/listeners/by_callsign", "").Code)
}

func TestDeleteDocument(t *testing.T) {
	admin := validation.UserContext{Name: "root", Roles: []string{"admin"}}
	g, svc := newTestRouter(t, admin)

	require.Equal(t, http.StatusCreated, doJSON(g, "PUT", "/db/docs/d-1", validBody).Code)

	// non-admin delete is rejected by the hooks
	plain := gin.New()
	NewDocsHandler(svc, nil, nil).Register(plain.Group("/"), asUser(validation.UserContext{Name: "plain"}))
	require.Equal(t, http.StatusUnauthorized, doJSON(plain, "DELETE", "/db/docs/d-1", "").Code)

	// admin delete succeeds
	require.Equal(t, http.StatusNoContent, doJSON(g, "DELETE", "/db/docs/d-1", "").Code)
	require.Equal(t, http.StatusNotFound, doJSON(g, "GET", "/db/docs/d-1", "").Code)
}

func TestPutDocument_BadJSON(t *testing.T) {
	g, _ := newTestRouter(t, validation.UserContext{})
	w := doJSON(g, "PUT", "/db/docs/x", "{not json")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
