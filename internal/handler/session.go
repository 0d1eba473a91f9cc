package handler

import (
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
	"github.com/savemymoney/savemymoney-backend/internal/middleware"
	"github.com/savemymoney/savemymoney-backend/internal/service"
)

// sessionScope resolves the caller's live session
type sessionScope struct {
	sessions *service.SessionRegistry
}

// open returns the authenticated user's session once its document is available
func (s sessionScope) open(c echo.Context) (*service.Session, error) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.sessions.Open(c.Request().Context(), userID)
}

// monthParam parses the :month path parameter
func monthParam(c echo.Context) (domain.MonthKey, error) {
	return domain.ParseMonthKey(c.Param("month"))
}

// pathParam returns an unescaped path parameter. Category names may contain spaces and slashes.
func pathParam(c echo.Context, name string) string {
	raw := c.Param(name)
	if value, err := url.PathUnescape(raw); err == nil {
		return value
	}
	return raw
}
