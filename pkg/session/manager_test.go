package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/nicholas-fedor/gifdeck/pkg/session"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

var errUnreachable = errors.New("connection refused")

// fakeIssuer hands out sequential identifiers and records how it was called.
type fakeIssuer struct {
	issued    atomic.Int32
	renewed   atomic.Int32
	delay     time.Duration
	issueErr  error
	renewErr  error
	onRenew   func()
	presented []types.SessionID
	mu        sync.Mutex
}

func (f *fakeIssuer) IssueSession(_ context.Context, current types.SessionID) (types.SessionID, error) {
	time.Sleep(f.delay)

	f.mu.Lock()
	f.presented = append(f.presented, current)
	f.mu.Unlock()

	if f.issueErr != nil {
		return "", f.issueErr
	}

	n := f.issued.Add(1)

	return types.SessionID("issued-" + string(rune('0'+n))), nil
}

func (f *fakeIssuer) NewSession(_ context.Context, current types.SessionID) (types.SessionID, error) {
	if f.onRenew != nil {
		f.onRenew()
	}

	f.mu.Lock()
	f.presented = append(f.presented, current)
	f.mu.Unlock()

	if f.renewErr != nil {
		return "", f.renewErr
	}

	n := f.renewed.Add(1)

	return types.SessionID("renewed-" + string(rune('0'+n))), nil
}

// failingStore fails every write.
type failingStore struct {
	session.MemoryStore
}

func (s *failingStore) Save(context.Context, types.SessionID) error {
	return errors.New("read-only filesystem")
}

// stickyStore cannot forget its identifier.
type stickyStore struct {
	session.MemoryStore
}

func (s *stickyStore) Clear(context.Context) error {
	return errors.New("permission denied")
}

var _ = ginkgo.Describe("Manager", func() {
	var (
		ctx     context.Context
		issuer  *fakeIssuer
		store   *session.MemoryStore
		manager *session.Manager
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		issuer = &fakeIssuer{}
		store = session.NewMemoryStore()
		manager = session.NewManager(issuer, store)
	})

	ginkgo.Describe("ID", func() {
		ginkgo.It("should issue and persist an id on first use", func() {
			id, err := manager.ID(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(id).To(gomega.Equal(types.SessionID("issued-1")))

			stored, err := store.Load(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(stored).To(gomega.Equal(id))
		})

		ginkgo.It("should return the cached id without another request", func() {
			first, err := manager.ID(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			second, err := manager.ID(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(second).To(gomega.Equal(first))
			gomega.Expect(issuer.issued.Load()).To(gomega.Equal(int32(1)))
		})

		ginkgo.It("should use a stored id without contacting the server", func() {
			gomega.Expect(store.Save(ctx, "persisted")).To(gomega.Succeed())

			id, err := manager.ID(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(id).To(gomega.Equal(types.SessionID("persisted")))
			gomega.Expect(issuer.issued.Load()).To(gomega.BeZero())
			gomega.Expect(manager.Current()).To(gomega.Equal(id))
		})

		ginkgo.It("should collapse concurrent first calls into one request", func() {
			issuer.delay = 20 * time.Millisecond

			var wg sync.WaitGroup

			ids := make([]types.SessionID, 8)
			for i := range ids {
				wg.Add(1)

				go func(i int) {
					defer wg.Done()
					defer ginkgo.GinkgoRecover()

					id, err := manager.ID(ctx)
					gomega.Expect(err).ToNot(gomega.HaveOccurred())
					ids[i] = id
				}(i)
			}

			wg.Wait()

			gomega.Expect(issuer.issued.Load()).To(gomega.Equal(int32(1)))
			for _, id := range ids {
				gomega.Expect(id).To(gomega.Equal(types.SessionID("issued-1")))
			}
		})

		ginkgo.It("should fail with ErrSessionUnavailable when the server is unreachable", func() {
			issuer.issueErr = errUnreachable

			_, err := manager.ID(ctx)
			gomega.Expect(err).To(gomega.MatchError(session.ErrSessionUnavailable))
			gomega.Expect(err).To(gomega.MatchError(errUnreachable))
			gomega.Expect(manager.Current()).To(gomega.BeEmpty())
		})

		ginkgo.It("should fail with ErrSessionUnavailable when the id cannot be persisted", func() {
			manager = session.NewManager(issuer, &failingStore{})

			_, err := manager.ID(ctx)
			gomega.Expect(err).To(gomega.MatchError(session.ErrSessionUnavailable))
			gomega.Expect(manager.Current()).To(gomega.BeEmpty())
		})

		ginkgo.It("should retry issuance on the next call after a failure", func() {
			issuer.issueErr = errUnreachable
			_, err := manager.ID(ctx)
			gomega.Expect(err).To(gomega.HaveOccurred())

			issuer.issueErr = nil
			id, err := manager.ID(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(id).To(gomega.Equal(types.SessionID("issued-1")))
		})
	})

	ginkgo.Describe("Reset", func() {
		ginkgo.It("should run reset hooks before the new-session request", func() {
			var order []string

			manager.OnReset(func() { order = append(order, "hook") })
			issuer.onRenew = func() { order = append(order, "request") }

			_, err := manager.Reset(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(order).To(gomega.Equal([]string{"hook", "request"}))
		})

		ginkgo.It("should replace and persist the id", func() {
			first, err := manager.ID(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			second, err := manager.Reset(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(second).ToNot(gomega.Equal(first))
			gomega.Expect(issuer.presented).To(gomega.Equal([]types.SessionID{"", first}))

			current, err := manager.ID(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(current).To(gomega.Equal(second))

			stored, err := store.Load(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(stored).To(gomega.Equal(second))
		})

		ginkgo.It("should leave the id cleared when the request fails", func() {
			_, err := manager.ID(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			hookRan := false
			manager.OnReset(func() { hookRan = true })
			issuer.renewErr = errUnreachable

			_, err = manager.Reset(ctx)
			gomega.Expect(err).To(gomega.MatchError(session.ErrSessionUnavailable))
			gomega.Expect(hookRan).To(gomega.BeTrue())
			gomega.Expect(manager.Current()).To(gomega.BeEmpty())

			stored, err := store.Load(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(stored).To(gomega.BeEmpty())

			id, err := manager.ID(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(id).To(gomega.Equal(types.SessionID("issued-2")))
		})

		ginkgo.It("should keep the session and skip the request when the stored id cannot be cleared", func() {
			sticky := &stickyStore{}
			manager = session.NewManager(issuer, sticky)

			first, err := manager.ID(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			hookRan := false
			manager.OnReset(func() { hookRan = true })

			_, err = manager.Reset(ctx)
			gomega.Expect(err).To(gomega.MatchError(session.ErrSessionUnavailable))
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("permission denied"))
			gomega.Expect(hookRan).To(gomega.BeFalse())
			gomega.Expect(issuer.renewed.Load()).To(gomega.BeZero())
			gomega.Expect(manager.Current()).To(gomega.Equal(first))

			stored, err := sticky.Load(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(stored).To(gomega.Equal(first))
		})
	})
})
