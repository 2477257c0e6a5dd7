package client

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

const (
	formContentType = "application/x-www-form-urlencoded"

	filesField      = "files"
	imageOrderField = "image_order"
	imageNameField  = "image_name"
	durationField   = "duration"
	loopField       = "loop"
	resizeField     = "resize"
)

// requestBody is an encoded payload together with its length, -1 when unknown.
type requestBody struct {
	reader      io.Reader
	contentType string
	length      int64
}

// formBody encodes values as application/x-www-form-urlencoded.
func formBody(values url.Values) *requestBody {
	encoded := values.Encode()

	return &requestBody{
		reader:      strings.NewReader(encoded),
		contentType: formContentType,
		length:      int64(len(encoded)),
	}
}

// multipartBody encodes a multipart payload. When stream is set the parts are produced by
// a goroutine through a pipe and the length is not known in advance.
func multipartBody(stream bool, write func(*multipart.Writer) error) (*requestBody, error) {
	if stream {
		pipeReader, pipeWriter := io.Pipe()
		writer := multipart.NewWriter(pipeWriter)

		go func() {
			err := write(writer)
			if err == nil {
				err = writer.Close()
			}

			pipeWriter.CloseWithError(err)
		}()

		return &requestBody{
			reader:      pipeReader,
			contentType: writer.FormDataContentType(),
			length:      -1,
		}, nil
	}

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)
	if err := write(writer); err != nil {
		return nil, fmt.Errorf("%w: %w", errEncodeBody, err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", errEncodeBody, err)
	}

	return &requestBody{
		reader:      &buf,
		contentType: writer.FormDataContentType(),
		length:      int64(buf.Len()),
	}, nil
}

// writeFiles adds one "files" part per file.
func writeFiles(files []types.File) func(*multipart.Writer) error {
	return func(writer *multipart.Writer) error {
		for _, file := range files {
			if err := writeFile(writer, file); err != nil {
				return err
			}
		}

		return nil
	}
}

func writeFile(writer *multipart.Writer, file types.File) error {
	source, err := file.Open()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errOpenFile, file.Name(), err)
	}
	defer source.Close()

	part, err := writer.CreateFormFile(filesField, file.Name())
	if err != nil {
		return fmt.Errorf("%w: %w", errEncodeBody, err)
	}

	if _, err := io.Copy(part, source); err != nil {
		return fmt.Errorf("%w: %s: %w", errEncodeBody, file.Name(), err)
	}

	return nil
}

// writeGenerateForm adds the generation fields; extra fields are written in key order.
func writeGenerateForm(form types.GenerateForm) func(*multipart.Writer) error {
	return func(writer *multipart.Writer) error {
		fields := [][2]string{
			{durationField, strconv.Itoa(form.DurationMS)},
			{loopField, strconv.Itoa(form.Loop)},
		}
		if form.Resize != "" {
			fields = append(fields, [2]string{resizeField, form.Resize})
		}

		for _, key := range slices.Sorted(maps.Keys(form.Extra)) {
			fields = append(fields, [2]string{key, form.Extra[key]})
		}

		for _, field := range fields {
			if err := writer.WriteField(field[0], field[1]); err != nil {
				return fmt.Errorf("%w: %w", errEncodeBody, err)
			}
		}

		return nil
	}
}
