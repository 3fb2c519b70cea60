package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/realmkit/gov-notify/internal/models"
	"github.com/realmkit/gov-notify/internal/repositories"
	"github.com/realmkit/gov-notify/pkg/config"
)

// SubscriptionHandler handles push-subscription registration.
type SubscriptionHandler struct {
	cfg           *config.Config
	subscriptions repositories.SubscriptionRepository
}

func NewSubscriptionHandler(cfg *config.Config, subs repositories.SubscriptionRepository) *SubscriptionHandler {
	return &SubscriptionHandler{cfg: cfg, subscriptions: subs}
}

func (h *SubscriptionHandler) RegisterSubscriptionRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
}

type registerRequest struct {
	Realm     string `json:"realm" validate:"required"`
	Token     string `json:"token" validate:"required,min=20"`
	Enabled   *bool  `json:"enabled"`
	Source    string `json:"source"`
	UserAgent string `json:"userAgent"`
}

// Register upserts a device subscription for a realm. Enabled defaults to
// true; re-registering a disabled token re-enables it.
func (h *SubscriptionHandler) Register(c echo.Context) error {
	var req registerRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if !h.cfg.IsAllowedRealm(req.Realm) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
			"realm %s is not allowed; allowed realms: %s",
			req.Realm, strings.Join(h.cfg.AllowedRealms(), ", "),
		))
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.Request().UserAgent()
	}

	sub := models.Subscription{
		Realm:     req.Realm,
		Token:     req.Token,
		Enabled:   enabled,
		Source:    req.Source,
		UserAgent: userAgent,
	}
	if err := h.subscriptions.Upsert(c.Request().Context(), sub); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, models.Truncate(err.Error(), maxErrorDetailLen))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ok":      true,
		"realm":   req.Realm,
		"enabled": enabled,
	})
}
