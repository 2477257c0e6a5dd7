// Package images provides the control API handler that returns the rendered image list.
package images

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// Handler serves GET /v1/images.
type Handler struct {
	Path  string
	items func() types.ImageList
}

// response is the body of a successful request.
type response struct {
	Images     types.ImageList `json:"images"`
	Count      int             `json:"count"`
	APIVersion string          `json:"api_version"`
}

// New creates a Handler reading the list from items.
func New(items func() types.ImageList) *Handler {
	return &Handler{
		Path:  "/v1/images",
		items: items,
	}
}

// ServeHTTP writes the rendered list as JSON.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)

		return
	}

	list := h.items()
	if list == nil {
		list = types.ImageList{}
	}

	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(response{
		Images:     list,
		Count:      len(list),
		APIVersion: "v1",
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to write image list response")
	}
}
