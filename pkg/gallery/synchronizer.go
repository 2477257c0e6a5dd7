package gallery

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// Lister reads the authoritative image list.
type Lister interface {
	ListImages(ctx context.Context, id types.SessionID) ([]string, error)
}

// SessionSource resolves the session to list.
type SessionSource interface {
	ID(ctx context.Context) (types.SessionID, error)
}

// Synchronizer owns every mutation of the rendered list.
type Synchronizer struct {
	lister   Lister
	sessions SessionSource
	view     types.View

	mu        sync.Mutex
	issued    uint64
	applied   uint64
	epoch     uint64
	discarded uint64
}

// NewSynchronizer creates a Synchronizer.
//
// Parameters:
//   - lister: Source of the server list.
//   - sessions: Session resolution.
//   - view: Render target.
//
// Returns:
//   - *Synchronizer: Synchronizer with nothing applied yet.
func NewSynchronizer(lister Lister, sessions SessionSource, view types.View) *Synchronizer {
	return &Synchronizer{
		lister:   lister,
		sessions: sessions,
		view:     view,
	}
}

// View returns the render target.
func (s *Synchronizer) View() types.View {
	return s.view
}

// Refresh fetches the server list and renders it in server order.
//
// Parameters:
//   - ctx: Context for session resolution and the list request.
//
// Returns:
//   - bool: True if the response was rendered, false if it was discarded as stale.
//   - error: Non-nil if the session or list could not be obtained; the view is untouched.
func (s *Synchronizer) Refresh(ctx context.Context) (bool, error) {
	s.mu.Lock()
	s.issued++
	ticket, epoch := s.issued, s.epoch
	s.mu.Unlock()

	id, err := s.sessions.ID(ctx)
	if err != nil {
		return false, err
	}

	names, err := s.lister.ListImages(ctx, id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || ticket <= s.applied {
		s.discarded++
		logrus.WithFields(logrus.Fields{
			"ticket":  ticket,
			"applied": s.applied,
			"session": id.ShortID(),
		}).Debug("Discarding stale image list")

		return false, nil
	}

	s.applied = ticket
	s.view.Render(types.NewImageList(names))

	logrus.WithFields(logrus.Fields{
		"images":  len(names),
		"session": id.ShortID(),
	}).Debug("Rendered image list")

	return true, nil
}

// Clear empties the view immediately and invalidates every refresh still in flight.
func (s *Synchronizer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.applied = s.issued
	s.view.Clear()
}

// Items returns the rendered list.
func (s *Synchronizer) Items() types.ImageList {
	return s.view.Items()
}

// Apply renders a locally computed order, superseding refreshes issued before it.
func (s *Synchronizer) Apply(list types.ImageList) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applied = s.issued
	s.view.Render(list)
}

// Remove drops one entry, superseding refreshes issued before it.
func (s *Synchronizer) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applied = s.issued
	s.view.Remove(name)
}

// Discarded returns the number of stale responses dropped so far.
func (s *Synchronizer) Discarded() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.discarded
}
