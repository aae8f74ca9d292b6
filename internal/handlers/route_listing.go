package handlers

import (
	"net/http"
	"sort"
	"strings"

	"learnapp/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// RouteInfo represents information about a single route
type RouteInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	HandlerName string `json:"handler_name"`
}

// RouteListing is the document served at the root path.
type RouteListing struct {
	Service       string         `json:"service"`
	TotalRoutes   int            `json:"total_routes"`
	MethodCounts  map[string]int `json:"method_counts"`
	Routes        []RouteInfo    `json:"routes"`
	Documentation string         `json:"documentation,omitempty"`
}

// RouteListingHandler generates automatic route listings
type RouteListingHandler struct {
	serviceName string
	routes      []RouteInfo
}

// NewRouteListingHandler creates a new route listing handler
func NewRouteListingHandler(serviceName string) *RouteListingHandler {
	return &RouteListingHandler{
		serviceName: serviceName,
		routes:      []RouteInfo{},
	}
}

// CollectRoutes extracts all routes from a Gin engine
func (h *RouteListingHandler) CollectRoutes(engine *gin.Engine) {
	h.routes = lo.FilterMap(engine.Routes(), func(route gin.RouteInfo, _ int) (RouteInfo, bool) {
		if strings.HasPrefix(route.Path, "/debug/") {
			return RouteInfo{}, false
		}
		return RouteInfo{Method: route.Method, Path: route.Path, HandlerName: route.Handler}, true
	})

	sort.SliceStable(h.routes, func(i, j int) bool {
		if h.routes[i].Path != h.routes[j].Path {
			return h.routes[i].Path < h.routes[j].Path
		}
		return h.routes[i].Method < h.routes[j].Method
	})
}

// Listing builds the route document from the collected routes.
func (h *RouteListingHandler) Listing() RouteListing {
	return RouteListing{
		Service:      h.serviceName,
		TotalRoutes:  len(h.routes),
		MethodCounts: lo.CountValuesBy(h.routes, func(r RouteInfo) string { return r.Method }),
		Routes:       h.routes,
	}
}

// GetRouteListingJSON returns the route listing as JSON
func (h *RouteListingHandler) GetRouteListingJSON(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_route_listing_json")
	defer observability.FinishSpan(span, nil)

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.JSON(http.StatusOK, h.Listing())
}
