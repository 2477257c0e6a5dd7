package session_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/nicholas-fedor/gifdeck/pkg/session"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

var _ = ginkgo.Describe("FileStore", func() {
	var (
		ctx  context.Context
		path string
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		path = filepath.Join(ginkgo.GinkgoT().TempDir(), "nested", "sessions.yaml")
	})

	ginkgo.It("should load nothing from a missing file", func() {
		store := session.NewFileStore(path, "", "http://localhost:5000")

		id, err := store.Load(ctx)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(id).To(gomega.BeEmpty())
	})

	ginkgo.It("should round trip an id and create the directory", func() {
		store := session.NewFileStore(path, "", "http://localhost:5000")
		gomega.Expect(store.Save(ctx, "abc")).To(gomega.Succeed())

		id, err := session.NewFileStore(path, "", "http://localhost:5000").Load(ctx)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(id).To(gomega.Equal(types.SessionID("abc")))

		info, err := os.Stat(path)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(info.Mode().Perm()).To(gomega.Equal(os.FileMode(0o600)))
	})

	ginkgo.It("should keep entries of other servers and profiles", func() {
		local := session.NewFileStore(path, "", "http://localhost:5000")
		remote := session.NewFileStore(path, "", "https://gifs.example.com")
		work := session.NewFileStore(path, "work", "http://localhost:5000")

		gomega.Expect(local.Save(ctx, "one")).To(gomega.Succeed())
		gomega.Expect(remote.Save(ctx, "two")).To(gomega.Succeed())
		gomega.Expect(work.Save(ctx, "three")).To(gomega.Succeed())
		gomega.Expect(local.Clear(ctx)).To(gomega.Succeed())

		id, err := local.Load(ctx)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(id).To(gomega.BeEmpty())

		id, err = remote.Load(ctx)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(id).To(gomega.Equal(types.SessionID("two")))

		id, err = work.Load(ctx)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(id).To(gomega.Equal(types.SessionID("three")))
	})

	ginkgo.It("should write the documented layout", func() {
		store := session.NewFileStore(path, "", "http://localhost:5000")
		gomega.Expect(store.Save(ctx, "abc")).To(gomega.Succeed())

		data, err := os.ReadFile(path)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(string(data)).To(gomega.ContainSubstring("profiles:"))
		gomega.Expect(string(data)).To(gomega.ContainSubstring("default:"))
		gomega.Expect(string(data)).To(gomega.ContainSubstring("http://localhost:5000: abc"))
	})

	ginkgo.It("should report a corrupt file", func() {
		gomega.Expect(os.MkdirAll(filepath.Dir(path), 0o700)).To(gomega.Succeed())
		gomega.Expect(os.WriteFile(path, []byte("profiles: [unterminated"), 0o600)).To(gomega.Succeed())

		_, err := session.NewFileStore(path, "", "x").Load(ctx)
		gomega.Expect(err).To(gomega.HaveOccurred())
	})

	ginkgo.It("should tolerate clearing an unknown entry", func() {
		store := session.NewFileStore(path, "", "http://localhost:5000")
		gomega.Expect(store.Clear(ctx)).To(gomega.Succeed())
	})

	ginkgo.It("should place the default file under XDG_CONFIG_HOME", func() {
		ginkgo.GinkgoT().Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

		defaultPath, err := session.DefaultFilePath()
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(defaultPath).To(gomega.Equal("/tmp/xdg/gifdeck/sessions.yaml"))
	})
})
