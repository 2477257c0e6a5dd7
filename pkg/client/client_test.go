package client_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/nicholas-fedor/gifdeck/pkg/client"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

const sessionID = types.SessionID("8f4c2a1e-session")

// expectFiles verifies the multipart "files" parts by name and content.
func expectFiles(want map[string]string) http.HandlerFunc {
	return func(_ http.ResponseWriter, r *http.Request) {
		gomega.Expect(r.ParseMultipartForm(1 << 20)).To(gomega.Succeed())

		parts := r.MultipartForm.File["files"]
		gomega.Expect(parts).To(gomega.HaveLen(len(want)))

		for _, part := range parts {
			content, ok := want[part.Filename]
			gomega.Expect(ok).To(gomega.BeTrue(), "unexpected file %s", part.Filename)

			file, err := part.Open()
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			data, err := io.ReadAll(file)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(file.Close()).To(gomega.Succeed())
			gomega.Expect(string(data)).To(gomega.Equal(content))
		}
	}
}

var _ = ginkgo.Describe("APIClient", func() {
	var (
		server *ghttp.Server
		api    *client.APIClient
		ctx    context.Context
	)

	ginkgo.BeforeEach(func() {
		server = ghttp.NewServer()
		api = client.New(client.Options{BaseURL: server.URL()})
		ctx = context.Background()
	})

	ginkgo.AfterEach(func() {
		server.Close()
	})

	ginkgo.Describe("New", func() {
		ginkgo.It("should normalize the prefix", func() {
			c := client.New(client.Options{BaseURL: "http://host:5000/", Prefix: "api/"})
			gomega.Expect(c.Root()).To(gomega.Equal("http://host:5000/api"))
			gomega.Expect(c.ImageURL("a b.png")).To(gomega.Equal("http://host:5000/api/uploads/a%20b.png"))
		})

		ginkgo.It("should send requests under the prefix", func() {
			api = client.New(client.Options{BaseURL: server.URL(), Prefix: "/api"})
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/api/get_images"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"images": []string{"a.png"}}),
			))

			names, err := api.ListImages(ctx, sessionID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(names).To(gomega.Equal([]string{"a.png"}))
		})

		ginkgo.It("should identify itself and tag every request", func() {
			api = client.New(client.Options{BaseURL: server.URL(), UserAgent: "gifdeck/v1.2.3"})
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/get_images"),
				ghttp.VerifyHeaderKV("User-Agent", "gifdeck/v1.2.3"),
				func(_ http.ResponseWriter, r *http.Request) {
					gomega.Expect(r.Header.Get(client.RequestIDHeader)).To(gomega.HaveLen(36))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"images": []string{}}),
			))

			_, err := api.ListImages(ctx, sessionID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("IssueSession", func() {
		ginkgo.It("should present the known id and return the issued one", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/get_session_id"),
				ghttp.VerifyHeaderKV(client.SessionHeader, "old-id"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{"session_id": "new-id"}),
			))

			id, err := api.IssueSession(ctx, "old-id")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(id).To(gomega.Equal(types.SessionID("new-id")))
		})

		ginkgo.It("should omit the header when no id is known", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/get_session_id"),
				func(_ http.ResponseWriter, r *http.Request) {
					gomega.Expect(r.Header.Values(client.SessionHeader)).To(gomega.BeEmpty())
					gomega.Expect(r.Header.Get(client.RequestIDHeader)).ToNot(gomega.BeEmpty())
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{"session_id": "fresh"}),
			))

			id, err := api.IssueSession(ctx, "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(id).To(gomega.Equal(types.SessionID("fresh")))
		})

		ginkgo.It("should fail when the response has no id", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{}))

			_, err := api.IssueSession(ctx, "")
			gomega.Expect(err).To(gomega.MatchError(client.ErrNetworkFailure))
		})

		ginkgo.It("should classify error statuses as network failures", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(
				http.StatusBadRequest,
				map[string]string{"error": "Session ID not found"},
			))

			_, err := api.IssueSession(ctx, "")
			gomega.Expect(err).To(gomega.MatchError(client.ErrNetworkFailure))

			var status *client.StatusError
			gomega.Expect(errors.As(err, &status)).To(gomega.BeTrue())
			gomega.Expect(status.StatusCode).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("Session ID not found"))
		})
	})

	ginkgo.Describe("NewSession", func() {
		ginkgo.It("should call the new session endpoint", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/new_session"),
				ghttp.VerifyHeaderKV(client.SessionHeader, sessionID.String()),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{"session_id": "second"}),
			))

			id, err := api.NewSession(ctx, sessionID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(id).To(gomega.Equal(types.SessionID("second")))
		})
	})

	ginkgo.Describe("Upload", func() {
		var files []types.File

		ginkgo.BeforeEach(func() {
			files = []types.File{
				client.NewBytesFile("a.png", []byte("aaaa")),
				client.NewBytesFile("b.png", []byte("bbbbbb")),
			}
		})

		ginkgo.It("should send every file in one multipart request with the session header", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/upload"),
				ghttp.VerifyHeaderKV(client.SessionHeader, sessionID.String()),
				ghttp.VerifyMimeType("multipart/form-data"),
				expectFiles(map[string]string{"a.png": "aaaa", "b.png": "bbbbbb"}),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"success":   true,
					"filenames": []string{"a.png", "b.png"},
				}),
			))

			var (
				lastLoaded, lastTotal int64
				calls                 int
			)

			result, err := api.Upload(ctx, sessionID, files, func(loaded, total int64) {
				calls++
				lastLoaded, lastTotal = loaded, total
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(result.Filenames).To(gomega.Equal([]string{"a.png", "b.png"}))
			gomega.Expect(calls).To(gomega.BeNumerically(">", 0))
			gomega.Expect(lastTotal).To(gomega.BeNumerically(">", 0))
			gomega.Expect(lastLoaded).To(gomega.Equal(lastTotal))
		})

		ginkgo.It("should stream bodies without a known length when configured", func() {
			api = client.New(client.Options{BaseURL: server.URL(), StreamBodies: true})
			server.AppendHandlers(ghttp.CombineHandlers(
				func(_ http.ResponseWriter, r *http.Request) {
					gomega.Expect(r.ContentLength).To(gomega.Equal(int64(-1)))
				},
				expectFiles(map[string]string{"a.png": "aaaa", "b.png": "bbbbbb"}),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"success": true}),
			))

			var (
				mu     sync.Mutex
				totals []int64
			)

			_, err := api.Upload(ctx, sessionID, files, func(_, total int64) {
				mu.Lock()
				defer mu.Unlock()

				totals = append(totals, total)
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			mu.Lock()
			defer mu.Unlock()

			gomega.Expect(totals).ToNot(gomega.BeEmpty())
			for _, total := range totals {
				gomega.Expect(total).To(gomega.Equal(int64(-1)))
			}
		})

		ginkgo.It("should send files from disk", func() {
			dir := ginkgo.GinkgoT().TempDir()
			path := filepath.Join(dir, "c.png")
			gomega.Expect(os.WriteFile(path, []byte("cc"), 0o600)).To(gomega.Succeed())

			local, err := client.NewLocalFile(path)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(local.Name()).To(gomega.Equal("c.png"))
			gomega.Expect(local.Size()).To(gomega.Equal(int64(2)))

			server.AppendHandlers(ghttp.CombineHandlers(
				expectFiles(map[string]string{"c.png": "cc"}),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"success": true}),
			))

			_, err = api.Upload(ctx, sessionID, []types.File{local}, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should reject directories as upload sources", func() {
			_, err := client.NewLocalFile(ginkgo.GinkgoT().TempDir())
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should return a RejectedError carrying the server text", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"success": false,
				"error":   "disk full",
			}))

			_, err := api.Upload(ctx, sessionID, files, nil)
			gomega.Expect(err).To(gomega.MatchError(client.ErrServerRejected))
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("disk full"))
			gomega.Expect(client.ServerMessage(err)).To(gomega.Equal("disk full"))
		})

		ginkgo.It("should use the raw body of a failed status", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "upstream broke\n"))

			_, err := api.Upload(ctx, sessionID, files, nil)
			gomega.Expect(err).To(gomega.MatchError(client.ErrNetworkFailure))
			gomega.Expect(client.ServerMessage(err)).To(gomega.Equal("upstream broke"))
		})
	})

	ginkgo.Describe("ListImages", func() {
		ginkgo.It("should return names in server order", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/get_images"),
				ghttp.VerifyHeaderKV(client.SessionHeader, sessionID.String()),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"images": []string{"c.png", "a.png", "b.png"},
				}),
			))

			names, err := api.ListImages(ctx, sessionID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(names).To(gomega.Equal([]string{"c.png", "a.png", "b.png"}))
		})

		ginkgo.It("should accept the order field of older services", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"order": []string{"b.png"},
			}))

			names, err := api.ListImages(ctx, sessionID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(names).To(gomega.Equal([]string{"b.png"}))
		})

		ginkgo.It("should return an empty list for an empty session", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{}))

			names, err := api.ListImages(ctx, sessionID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(names).ToNot(gomega.BeNil())
			gomega.Expect(names).To(gomega.BeEmpty())
		})

		ginkgo.It("should fail on undecodable bodies", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, "<html>"))

			_, err := api.ListImages(ctx, sessionID)
			gomega.Expect(err).To(gomega.MatchError(client.ErrNetworkFailure))
		})
	})

	ginkgo.Describe("Reorder", func() {
		ginkgo.It("should post the position mapping as JSON in image_order", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/reorder_images"),
				ghttp.VerifyHeaderKV(client.SessionHeader, sessionID.String()),
				ghttp.VerifyForm(url.Values{
					"image_order": {`{"1":"b.png","2":"a.png","3":"c.png"}`},
				}),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"success": true}),
			))

			err := api.Reorder(ctx, sessionID, map[int]string{1: "b.png", 2: "a.png", 3: "c.png"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should surface a rejection", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"success": false,
				"error":   "Failed to reorder images",
			}))

			err := api.Reorder(ctx, sessionID, map[int]string{1: "a.png"})
			gomega.Expect(err).To(gomega.MatchError(client.ErrServerRejected))
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("Failed to reorder images"))
		})
	})

	ginkgo.Describe("Remove", func() {
		ginkgo.It("should post the image name", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/remove_image"),
				ghttp.VerifyForm(url.Values{"image_name": {"a.png"}}),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"success": true}),
			))

			gomega.Expect(api.Remove(ctx, sessionID, "a.png")).To(gomega.Succeed())
		})

		ginkgo.It("should accept a status field of success", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"status": "success"}))

			gomega.Expect(api.Remove(ctx, sessionID, "a.png")).To(gomega.Succeed())
		})

		ginkgo.It("should surface the server message", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"success": false,
				"message": "Image not found",
			}))

			err := api.Remove(ctx, sessionID, "a.png")
			gomega.Expect(client.ServerMessage(err)).To(gomega.Equal("Image not found"))
		})

		ginkgo.It("should treat an unconfirmed payload as a rejection", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{}))

			err := api.Remove(ctx, sessionID, "a.png")
			gomega.Expect(err).To(gomega.MatchError(client.ErrServerRejected))
		})
	})

	ginkgo.Describe("Generate", func() {
		ginkgo.It("should send the form fields and return the location", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/generate_gif"),
				ghttp.VerifyHeaderKV(client.SessionHeader, sessionID.String()),
				func(_ http.ResponseWriter, r *http.Request) {
					gomega.Expect(r.ParseMultipartForm(1 << 20)).To(gomega.Succeed())
					gomega.Expect(r.FormValue("duration")).To(gomega.Equal("200"))
					gomega.Expect(r.FormValue("loop")).To(gomega.Equal("0"))
					gomega.Expect(r.FormValue("resize")).To(gomega.Equal("320x240"))
					gomega.Expect(r.FormValue("optimize")).To(gomega.Equal("true"))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"success": true,
					"gif_url": "/uploads/s/animation.gif",
				}),
			))

			result, err := api.Generate(ctx, sessionID, types.GenerateForm{
				DurationMS: 200,
				Resize:     "320x240",
				Extra:      map[string]string{"optimize": "true"},
			}, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(result.GIFURL).To(gomega.Equal("/uploads/s/animation.gif"))
		})

		ginkgo.It("should omit resize when empty", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				func(_ http.ResponseWriter, r *http.Request) {
					gomega.Expect(r.ParseMultipartForm(1 << 20)).To(gomega.Succeed())
					gomega.Expect(r.MultipartForm.Value).ToNot(gomega.HaveKey("resize"))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"success": true}),
			))

			_, err := api.Generate(ctx, sessionID, types.GenerateForm{DurationMS: 150}, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Fetch", func() {
		ginkgo.It("should copy image bytes", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/uploads/s/animation.gif"),
				ghttp.RespondWith(http.StatusOK, "GIF89a"),
			))

			var buf bytes.Buffer
			written, err := api.Fetch(ctx, sessionID, "/uploads/s/animation.gif", &buf)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(written).To(gomega.Equal(int64(6)))
			gomega.Expect(buf.String()).To(gomega.Equal("GIF89a"))
		})

		ginkgo.It("should fail on missing images", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, ""))

			_, err := api.Fetch(ctx, sessionID, "a.png", io.Discard)
			gomega.Expect(err).To(gomega.MatchError(client.ErrNetworkFailure))
		})
	})

	ginkgo.Describe("transport failures", func() {
		ginkgo.It("should classify an unreachable server as a network failure", func() {
			server.Close()

			_, err := api.ListImages(ctx, sessionID)
			gomega.Expect(err).To(gomega.MatchError(client.ErrNetworkFailure))
		})

		ginkgo.It("should honor context cancellation", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := api.ListImages(cancelled, sessionID)
			gomega.Expect(err).To(gomega.MatchError(client.ErrNetworkFailure))
			gomega.Expect(errors.Is(err, context.Canceled)).To(gomega.BeTrue())
		})
	})
})
