package handlers

import (
	"strconv"
	"strings"

	"learnapp/internal/services"

	"github.com/gin-gonic/gin"
)

// dayRange bounds the days query parameter of an analytics endpoint.
type dayRange struct {
	def, min, max int
}

var (
	defaultDays  = dayRange{def: 30, min: 1, max: 365}
	trendDays    = dayRange{def: 30, min: 7, max: 365}
	patternsDays = dayRange{def: 30, min: 7, max: 90}
)

// parsePage reads limit and offset (skip is accepted as an alias). Missing values take defaults; values
// outside [1, maxLimit] or negative offsets are rejected.
func parsePage(c *gin.Context, maxLimit int) (services.Page, bool) {
	page := services.Page{Limit: services.DefaultPageLimit}
	if maxLimit < page.Limit {
		page.Limit = maxLimit
	}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			HandleValidationError(c, "limit", raw, "must be an integer between 1 and "+strconv.Itoa(maxLimit))
			return services.Page{}, false
		}
		page.Limit = limit
	}
	raw := strings.TrimSpace(c.Query("offset"))
	if raw == "" {
		raw = strings.TrimSpace(c.Query("skip"))
	}
	if raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			HandleValidationError(c, "offset", raw, "must be a non-negative integer")
			return services.Page{}, false
		}
		page.Offset = offset
	}
	return page, true
}

// parseDays reads the days query parameter within r.
func parseDays(c *gin.Context, r dayRange) (int, bool) {
	raw := strings.TrimSpace(c.Query("days"))
	if raw == "" {
		return r.def, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < r.min || days > r.max {
		HandleValidationError(c, "days", raw,
			"must be an integer between "+strconv.Itoa(r.min)+" and "+strconv.Itoa(r.max))
		return 0, false
	}
	return days, true
}

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c *gin.Context, name string) (int, bool) {
	raw := c.Param(name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		HandleValidationError(c, name, raw, "must be a positive integer")
		return 0, false
	}
	return id, true
}

// parseBoolQuery reads an optional boolean query parameter.
func parseBoolQuery(c *gin.Context, name string, def bool) (bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		HandleValidationError(c, name, raw, "must be a boolean")
		return false, false
	}
	return value, true
}
