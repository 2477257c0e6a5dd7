package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

const (
	// DefaultProfile is used when no profile is configured.
	DefaultProfile = "default"

	fileMode = 0o600
	dirMode  = 0o700
)

// fileContents is the on-disk layout: profile -> server -> session id.
type fileContents struct {
	Profiles map[string]map[string]string `yaml:"profiles"`
}

// FileStore persists identifiers in a YAML file shared by every profile and server.
type FileStore struct {
	path    string
	profile string
	server  string

	mu sync.Mutex
}

// NewFileStore creates a FileStore.
//
// Parameters:
//   - path: YAML file location.
//   - profile: Profile name; empty selects DefaultProfile.
//   - server: Server base URL the identifier belongs to.
//
// Returns:
//   - *FileStore: Store bound to one profile and server.
func NewFileStore(path, profile, server string) *FileStore {
	if profile == "" {
		profile = DefaultProfile
	}

	return &FileStore{
		path:    path,
		profile: profile,
		server:  server,
	}
}

// DefaultFilePath returns the sessions file under the user configuration directory,
// honoring XDG_CONFIG_HOME.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", errLoadStore, err)
	}

	return filepath.Join(dir, "gifdeck", "sessions.yaml"), nil
}

// Path returns the file location.
func (s *FileStore) Path() string {
	return s.path
}

// Name returns "file".
func (s *FileStore) Name() string {
	return "file"
}

// Load returns the identifier stored for the profile and server.
func (s *FileStore) Load(_ context.Context) (types.SessionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.read()
	if err != nil {
		return "", err
	}

	return types.SessionID(contents.Profiles[s.profile][s.server]), nil
}

// Save stores id for the profile and server, keeping other entries.
func (s *FileStore) Save(_ context.Context, id types.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.read()
	if err != nil {
		return err
	}

	if contents.Profiles[s.profile] == nil {
		contents.Profiles[s.profile] = map[string]string{}
	}

	contents.Profiles[s.profile][s.server] = id.String()

	return s.write(contents)
}

// Clear removes the entry for the profile and server.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.read()
	if err != nil {
		return fmt.Errorf("%w: %w", errClearStore, err)
	}

	servers, ok := contents.Profiles[s.profile]
	if !ok {
		return nil
	}

	delete(servers, s.server)

	if len(servers) == 0 {
		delete(contents.Profiles, s.profile)
	}

	return s.write(contents)
}

// read loads the file; a missing file yields empty contents.
func (s *FileStore) read() (*fileContents, error) {
	contents := &fileContents{Profiles: map[string]map[string]string{}}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return contents, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", errLoadStore, err)
	}

	if err := yaml.Unmarshal(data, contents); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errLoadStore, s.path, err)
	}

	if contents.Profiles == nil {
		contents.Profiles = map[string]map[string]string{}
	}

	return contents, nil
}

// write replaces the file atomically through a temporary file in the same directory.
func (s *FileStore) write(contents *fileContents) error {
	data, err := yaml.Marshal(contents)
	if err != nil {
		return fmt.Errorf("%w: %w", errSaveStore, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("%w: %w", errSaveStore, err)
	}

	tmp, err := os.CreateTemp(dir, ".sessions-*.yaml")
	if err != nil {
		return fmt.Errorf("%w: %w", errSaveStore, err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("%w: %w", errSaveStore, err)
	}

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("%w: %w", errSaveStore, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", errSaveStore, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: %w", errSaveStore, err)
	}

	return nil
}
