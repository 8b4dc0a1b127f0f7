package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-ops-api/internal/models"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
)

type parserStub struct {
	token string
}

func (p *parserStub) ParseSession(token string) (*models.AdminClaims, error) {
	p.token = token
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid admin session")
	}
	return &models.AdminClaims{Actor: "admin:feedbeef", Mode: models.AdminModeSuper}, nil
}

func sessionRouter(parser SessionParser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/guarded", AdminSession(parser), func(c *gin.Context) {
		claims := AdminClaims(c)
		c.JSON(http.StatusOK, gin.H{"actor": claims.Actor})
	})
	return router
}

func TestAdminSession(t *testing.T) {
	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "rejected token", header: "Bearer stale", status: http.StatusUnauthorized},
		{name: "valid session", header: "bearer good", status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := sessionRouter(&parserStub{})
			req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestAdminSessionExposesActor(t *testing.T) {
	parser := &parserStub{}
	router := sessionRouter(parser)
	req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer  good ")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "good", parser.token)
	assert.JSONEq(t, `{"actor":"admin:feedbeef"}`, w.Body.String())
}

func TestAdminClaimsMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, AdminClaims(c))
	c.Set(ContextAdminKey, "not claims")
	assert.Nil(t, AdminClaims(c))
}

type observerStub struct {
	path   string
	status int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.path = path
	o.status = status
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/events/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/abc", nil))
	assert.Equal(t, "/events/:id", observer.path)
	assert.Equal(t, http.StatusNoContent, observer.status)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, "unmatched", observer.path)
	assert.Equal(t, http.StatusNotFound, observer.status)
}

func TestResponseMetaRecordsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	router := gin.New()
	router.Use(WithResponseMeta())
	router.GET("/cached", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cached", nil))

	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}
