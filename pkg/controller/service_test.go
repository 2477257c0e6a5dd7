package controller_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/onsi/gomega/ghttp"

	"github.com/nicholas-fedor/gifdeck/pkg/client"
)

// fakeService is a stateful stand-in for the image service.
type fakeService struct {
	mu       sync.Mutex
	sessions map[string][]string
	issued   int
	calls    map[string]int

	faults faults
}

// faults makes individual endpoints misbehave.
type faults struct {
	uploadFailure  string
	reorderFailure string
	sessionFailure bool
	onNewSession   func()
	holdRemove     chan struct{}
}

func newFakeService(server *ghttp.Server) *fakeService {
	service := &fakeService{
		sessions: map[string][]string{},
		calls:    map[string]int{},
	}

	server.RouteToHandler(http.MethodGet, client.EndpointSessionID, service.issueSession)
	server.RouteToHandler(http.MethodGet, client.EndpointNewSession, service.newSession)
	server.RouteToHandler(http.MethodPost, client.EndpointUpload, service.upload)
	server.RouteToHandler(http.MethodGet, client.EndpointImages, service.images)
	server.RouteToHandler(http.MethodPost, client.EndpointReorder, service.reorder)
	server.RouteToHandler(http.MethodPost, client.EndpointRemove, service.remove)
	server.RouteToHandler(http.MethodPost, client.EndpointGenerate, service.generate)

	return service
}

// configure changes the fault settings under the lock.
func (f *fakeService) configure(change func(faults *faults)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	change(&f.faults)
}

func (f *fakeService) snapshot() faults {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.faults
}

func (f *fakeService) count(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[endpoint]
}

func (f *fakeService) stored(sessionID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.sessions[sessionID])
}

func (f *fakeService) record(endpoint string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[endpoint]++
}

func (f *fakeService) create() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.issued++
	id := "session-" + strconv.Itoa(f.issued)
	f.sessions[id] = []string{}

	return id
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeService) issueSession(w http.ResponseWriter, r *http.Request) {
	f.record(client.EndpointSessionID)

	if f.snapshot().sessionFailure {
		respond(w, http.StatusServiceUnavailable, map[string]string{"error": "session store down"})

		return
	}

	if id := r.Header.Get(client.SessionHeader); id != "" {
		respond(w, http.StatusOK, map[string]string{"session_id": id})

		return
	}

	respond(w, http.StatusOK, map[string]string{"session_id": f.create()})
}

func (f *fakeService) newSession(w http.ResponseWriter, _ *http.Request) {
	f.record(client.EndpointNewSession)

	if hook := f.snapshot().onNewSession; hook != nil {
		hook()
	}

	respond(w, http.StatusOK, map[string]string{"session_id": f.create()})
}

func (f *fakeService) upload(w http.ResponseWriter, r *http.Request) {
	f.record(client.EndpointUpload)

	if failure := f.snapshot().uploadFailure; failure != "" {
		respond(w, http.StatusOK, map[string]any{"success": false, "error": failure})

		return
	}

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})

		return
	}

	id := r.Header.Get(client.SessionHeader)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, part := range r.MultipartForm.File["files"] {
		if !slices.Contains(f.sessions[id], part.Filename) {
			f.sessions[id] = append(f.sessions[id], part.Filename)
		}
	}

	respond(w, http.StatusOK, map[string]any{"success": true, "filenames": f.sessions[id]})
}

func (f *fakeService) images(w http.ResponseWriter, r *http.Request) {
	f.record(client.EndpointImages)
	respond(w, http.StatusOK, map[string]any{"images": f.imagesOf(r.Header.Get(client.SessionHeader))})
}

func (f *fakeService) imagesOf(id string) []string {
	names := f.stored(id)
	if names == nil {
		return []string{}
	}

	return names
}

func (f *fakeService) reorder(w http.ResponseWriter, r *http.Request) {
	f.record(client.EndpointReorder)

	if failure := f.snapshot().reorderFailure; failure != "" {
		respond(w, http.StatusOK, map[string]any{"success": false, "error": failure})

		return
	}

	var order map[string]string
	if err := json.Unmarshal([]byte(r.FormValue("image_order")), &order); err != nil {
		respond(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})

		return
	}

	names := make([]string, 0, len(order))
	for position := 1; position <= len(order); position++ {
		names = append(names, order[strconv.Itoa(position)])
	}

	f.mu.Lock()
	f.sessions[r.Header.Get(client.SessionHeader)] = names
	f.mu.Unlock()

	respond(w, http.StatusOK, map[string]any{"success": true})
}

func (f *fakeService) remove(w http.ResponseWriter, r *http.Request) {
	f.record(client.EndpointRemove)

	if hold := f.snapshot().holdRemove; hold != nil {
		<-hold
	}

	id := r.Header.Get(client.SessionHeader)
	name := r.FormValue("image_name")

	f.mu.Lock()
	defer f.mu.Unlock()

	index := slices.Index(f.sessions[id], name)
	if index < 0 {
		respond(w, http.StatusOK, map[string]any{"success": false, "message": "Image not found"})

		return
	}

	f.sessions[id] = slices.Delete(f.sessions[id], index, index+1)
	respond(w, http.StatusOK, map[string]any{"success": true})
}

func (f *fakeService) generate(w http.ResponseWriter, r *http.Request) {
	f.record(client.EndpointGenerate)

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})

		return
	}

	id := r.Header.Get(client.SessionHeader)
	if len(f.stored(id)) == 0 {
		respond(w, http.StatusOK, map[string]any{"success": false, "error": "No images found for session"})

		return
	}

	respond(w, http.StatusOK, map[string]any{
		"success": true,
		"gif_url": fmt.Sprintf("/uploads/%s/animation.gif", id),
	})
}
