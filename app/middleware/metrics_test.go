package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsUsesRouteTemplate(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics("/metrics"))
	app.Get("/ads/:adId", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/metrics", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	matched := httpRequestsTotal.WithLabelValues(http.MethodGet, "/ads/:adId", "204")
	scraped := httpRequestsTotal.WithLabelValues(http.MethodGet, "/metrics", "200")
	beforeMatched := testutil.ToFloat64(matched)
	beforeScraped := testutil.ToFloat64(scraped)

	for _, path := range []string{"/ads/a", "/ads/b", "/metrics"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	assert.Equal(t, beforeMatched+2, testutil.ToFloat64(matched))
	assert.Equal(t, beforeScraped, testutil.ToFloat64(scraped))
}
