package controller

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// sniffLength is the number of bytes content sniffing considers.
const sniffLength = 512

// imageExtensions are the upload extensions the service accepts.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
}

// IsImageFile reports whether file looks like an image: by extension when it has one, by
// content sniffing otherwise.
func IsImageFile(file types.File) bool {
	ext := strings.ToLower(filepath.Ext(file.Name()))
	if ext != "" {
		return imageExtensions[ext]
	}

	source, err := file.Open()
	if err != nil {
		return false
	}
	defer source.Close()

	head := make([]byte, sniffLength)

	n, err := io.ReadFull(source, head)
	if err != nil && n == 0 {
		return false
	}

	return strings.HasPrefix(http.DetectContentType(head[:n]), "image/")
}

// filterImages keeps image files, in their original order.
func filterImages(files []types.File) []types.File {
	kept := make([]types.File, 0, len(files))

	for _, file := range files {
		if !IsImageFile(file) {
			logrus.WithField("file", file.Name()).Warn("Skipping non-image file")

			continue
		}

		kept = append(kept, file)
	}

	return kept
}
