package handlers

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/skillforge-io/backend/internal/models"
)

// getUserClaimsFromContext returns the JWT claims set by the auth middleware,
// or nil when the request is unauthenticated.
func getUserClaimsFromContext(c echo.Context) *models.JwtCustomClaims {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// getUserIDFromContext returns the authenticated user's ID, 0 when absent
func getUserIDFromContext(c echo.Context) uint {
	claims := getUserClaimsFromContext(c)
	if claims == nil {
		return 0
	}
	return claims.UserID
}

// parsePagination extracts page/limit query parameters with sane bounds
func parsePagination(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return page, limit
}

// paginationMeta builds the standard pagination envelope
func paginationMeta(page, limit int, total int64) echo.Map {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      total,
		"itemsPerPage":    limit,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}

// parseIDParam parses a numeric path parameter
func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
