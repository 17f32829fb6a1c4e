package v1

import (
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
)

// userIDPattern constrains user ids everywhere they enter the API.
var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

const userIDContextKey = "elevate.user-id"

func isValidUserID(userID string) bool {
	return userIDPattern.MatchString(userID)
}

// requireUserIDHeader authenticates task routes by the X-User-ID header.
func requireUserIDHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Request().Header.Get("X-User-ID")
		if userID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing X-User-ID header")
		}
		if !isValidUserID(userID) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid X-User-ID format")
		}
		c.Set(userIDContextKey, userID)
		return next(c)
	}
}

// validatePathUserID rejects malformed user ids on chat routes before any
// handler runs.
func validatePathUserID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !isValidUserID(c.Param("userID")) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
		}
		return next(c)
	}
}

// currentUserID returns the authenticated user id set by requireUserIDHeader.
func currentUserID(c echo.Context) string {
	userID, _ := c.Get(userIDContextKey).(string)
	return userID
}
