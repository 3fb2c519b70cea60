package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/messaging"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/realmkit/gov-notify/internal/models"
	"github.com/realmkit/gov-notify/pkg/config"
)

// SingleSender is the slice of the FCM client used for single-device sends.
type SingleSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushHandler exposes the single-device test-send endpoint.
type PushHandler struct {
	cfg  *config.Config
	push SingleSender
}

func NewPushHandler(cfg *config.Config, push SingleSender) *PushHandler {
	return &PushHandler{cfg: cfg, push: push}
}

func (h *PushHandler) RegisterPushRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/test-send", h.TestSend, auth)
}

type testSendRequest struct {
	Realm string `json:"realm" validate:"required"`
	Token string `json:"token" validate:"required,min=20"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// TestSend delivers one push to one device so an operator can verify the
// delivery path end to end.
func (h *PushHandler) TestSend(c echo.Context) error {
	var req testSendRequest

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

	title := req.Title
	if title == "" {
		title = "Test Notification"
	}
	body := req.Body
	if body == "" {
		body = "Push delivery is working."
	}

	message := &messaging.Message{
		Token: req.Token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"realm": req.Realm,
			"event": "test",
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: title,
				Body:  body,
				Icon:  h.cfg.NotificationIconURL,
				Badge: h.cfg.NotificationBadgeURL,
			},
		},
	}

	messageID, err := h.push.Send(c.Request().Context(), message)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, models.Truncate(err.Error(), maxErrorDetailLen))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ok":        true,
		"realm":     req.Realm,
		"messageId": messageID,
	})
}
