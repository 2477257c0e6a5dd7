// Package api wires the control API handlers of watch mode to the running controller.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/gifdeck/pkg/api"
	"github.com/nicholas-fedor/gifdeck/pkg/api/images"
	metricsAPI "github.com/nicholas-fedor/gifdeck/pkg/api/metrics"
	"github.com/nicholas-fedor/gifdeck/pkg/api/refresh"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// Options configures the control API.
type Options struct {
	Host  string
	Port  string
	Token string
}

// GetAPIAddr formats the API address string based on host and port.
func GetAPIAddr(host, port string) string {
	address := host + ":" + port
	if host != "" && strings.Contains(host, ":") && net.ParseIP(host) != nil {
		address = "[" + host + "]:" + port
	}

	return address
}

// SetupAndStartAPI registers the refresh, images and metrics handlers and starts the server
// in the background.
//
// Parameters:
//   - ctx: Context bounding the server lifetime.
//   - opts: Address and token.
//   - lock: Refresh lock shared with the scheduler.
//   - refreshFn: Refresh cycle triggered by POST /v1/refresh.
//   - items: Source of the rendered list served by GET /v1/images.
//   - server: Optional server for tests.
//
// Returns:
//   - error: Non-nil if the server could not be started.
func SetupAndStartAPI(
	ctx context.Context,
	opts Options,
	lock chan bool,
	refreshFn refresh.Func,
	items func() types.ImageList,
	server ...api.HTTPServer,
) error {
	if opts.Host != "" && net.ParseIP(opts.Host) == nil && opts.Host != "localhost" {
		logrus.WithField("host", opts.Host).Warn("Control API host is neither an IP address nor localhost")
	}

	port := opts.Port
	if port == "" {
		port = "8080"
	}

	httpAPI := api.New(opts.Token, GetAPIAddr(opts.Host, port), server...)

	refreshHandler := refresh.New(refreshFn, lock)
	httpAPI.RegisterFunc(refreshHandler.Path, refreshHandler.Handle)

	imagesHandler := images.New(items)
	httpAPI.RegisterHandler(imagesHandler.Path, imagesHandler)

	metricsHandler := metricsAPI.New()
	httpAPI.RegisterFunc(metricsHandler.Path, metricsHandler.Handle)

	if err := httpAPI.Start(ctx, false); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Error("Failed to start control API")

		return fmt.Errorf("failed to start control API: %w", err)
	}

	return nil
}
