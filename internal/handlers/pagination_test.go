package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"learnapp/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got services.Page
	r.GET("/test", func(c *gin.Context) {
		page, ok := parsePage(c, 50)
		if !ok {
			return
		}
		got = page
		c.Status(http.StatusOK)
	})

	tests := []struct {
		query  string
		status int
		want   services.Page
	}{
		{"", http.StatusOK, services.Page{Limit: 20}},
		{"limit=50&offset=100", http.StatusOK, services.Page{Limit: 50, Offset: 100}},
		{"limit=1&skip=3", http.StatusOK, services.Page{Limit: 1, Offset: 3}},
		{"offset=2&skip=9", http.StatusOK, services.Page{Limit: 20, Offset: 2}},
		{"limit=51", http.StatusBadRequest, services.Page{}},
		{"limit=-1", http.StatusBadRequest, services.Page{}},
		{"offset=abc", http.StatusBadRequest, services.Page{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got = services.Page{}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test?"+tt.query, nil))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePage_SmallMaximumCapsDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got services.Page
	r.GET("/test", func(c *gin.Context) {
		got, _ = parsePage(c, 10)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, 10, got.Limit)
}

func TestParseDays(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got int
	r.GET("/test", func(c *gin.Context) {
		days, ok := parseDays(c, patternsDays)
		if !ok {
			return
		}
		got = days
		c.Status(http.StatusOK)
	})

	tests := []struct {
		query  string
		status int
		want   int
	}{
		{"", http.StatusOK, 30},
		{"days=7", http.StatusOK, 7},
		{"days=90", http.StatusOK, 90},
		{"days=6", http.StatusBadRequest, 0},
		{"days=91", http.StatusBadRequest, 0},
		{"days=week", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got = 0
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test?"+tt.query, nil))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.want, got)
		})
	}
}
