package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/realmkit/gov-notify/internal/models"
	"github.com/realmkit/gov-notify/pkg/config"
)

// maxErrorDetailLen bounds the free-text detail returned on a 500.
const maxErrorDetailLen = 350

// RealmScanner runs the scan pipeline for a set of realms.
type RealmScanner interface {
	ScanRealms(ctx context.Context, realms []string, dryRun bool) ([]models.RealmResult, error)
}

// ScanHandler exposes the scheduler-triggered scan endpoint.
type ScanHandler struct {
	cfg     *config.Config
	scanner RealmScanner
}

func NewScanHandler(cfg *config.Config, scanner RealmScanner) *ScanHandler {
	return &ScanHandler{cfg: cfg, scanner: scanner}
}

// RegisterScanRoutes registers the scan endpoint for GET and POST; Echo
// answers 405 for anything else on the route.
func (h *ScanHandler) RegisterScanRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/scan", h.Scan, auth)
	g.POST("/scan", h.Scan, auth)
}

type scanRequest struct {
	Realm  string `json:"realm"`
	DryRun bool   `json:"dryRun"`
}

// Scan resolves the realm set, runs the pipeline and aggregates per-realm
// results. Any pipeline error aborts the request with a 500; writes already
// committed for earlier realms stand.
func (h *ScanHandler) Scan(c echo.Context) error {
	var req scanRequest
	if c.Request().Method == http.MethodPost && c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
		}
	}
	if v := c.QueryParam("realm"); v != "" {
		req.Realm = v
	}
	if v := c.QueryParam("dryRun"); v != "" {
		dryRun, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "dryRun must be a boolean")
		}
		req.DryRun = dryRun
	}

	realms := h.cfg.FilterRealms(req.Realm)
	if len(realms) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
			"no valid realm requested; allowed realms: %s",
			strings.Join(h.cfg.AllowedRealms(), ", "),
		))
	}

	results, err := h.scanner.ScanRealms(c.Request().Context(), realms, req.DryRun)
	if err != nil {
		log.Printf("scan failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, models.Truncate(err.Error(), maxErrorDetailLen))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ok":        true,
		"dryRun":    req.DryRun,
		"scannedAt": time.Now().UTC().Format(time.RFC3339),
		"realms":    realms,
		"results":   results,
	})
}
