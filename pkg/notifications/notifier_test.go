package notifications_test

import (
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/nicholas-fedor/gifdeck/internal/flags"
	"github.com/nicholas-fedor/gifdeck/pkg/notifications"
)

func newNotificationCommand(args ...string) *cobra.Command {
	command := &cobra.Command{Use: "gifdeck"}

	flags.SetDefaults()
	flags.RegisterNotificationFlags(command)

	gomega.ExpectWithOffset(1, command.ParseFlags(args)).To(gomega.Succeed())

	return command
}

var _ = ginkgo.Describe("notifications", func() {
	ginkgo.Describe("the notifier", func() {
		ginkgo.When("no notification URLs are provided", func() {
			ginkgo.It("should have no services", func() {
				notifier, err := notifications.NewNotifier(newNotificationCommand())
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				defer notifier.Close()

				gomega.Expect(notifier.GetNames()).To(gomega.BeEmpty())
				gomega.Expect(notifier.GetURLs()).To(gomega.BeEmpty())
			})
		})
		ginkgo.When("a logger URL is provided", func() {
			ginkgo.It("should report the scheme as service name", func() {
				notifier, err := notifications.NewNotifier(newNotificationCommand(
					"--notification-url", "logger://",
				))
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				defer notifier.Close()

				gomega.Expect(notifier.GetNames()).To(gomega.Equal([]string{"logger"}))
				gomega.Expect(notifier.GetURLs()).To(gomega.Equal([]string{"logger://"}))
			})
		})
		ginkgo.When("the notifications level is invalid", func() {
			ginkgo.It("should return an error", func() {
				_, err := notifications.NewNotifier(newNotificationCommand(
					"--notifications-level", "loud",
				))
				gomega.Expect(err).To(gomega.MatchError(gomega.ContainSubstring("invalid notifications log level")))
			})
		})
		ginkgo.When("title is overridden in flag", func() {
			ginkgo.It("should use the specified hostname in the title", func() {
				data := notifications.GetTemplateData(newNotificationCommand(
					"--notifications-hostname", "test.host",
				))
				gomega.Expect(data.Title).To(gomega.Equal("gifdeck events on test.host"))
				gomega.Expect(data.Host).To(gomega.Equal("test.host"))
			})
		})
		ginkgo.When("no hostname can be resolved", func() {
			ginkgo.It("should use the default simple title", func() {
				gomega.Expect(notifications.GetTitle("", "")).To(gomega.Equal("gifdeck events"))
			})
		})
		ginkgo.When("title tag is set", func() {
			ginkgo.It("should use the prefix in the title", func() {
				data := notifications.GetTemplateData(newNotificationCommand(
					"--notification-title-tag", "PREFIX",
				))
				gomega.Expect(data.Title).To(gomega.HavePrefix("[PREFIX] gifdeck events"))
			})
		})
		ginkgo.When("the skip title flag is set", func() {
			ginkgo.It("should return an empty title", func() {
				data := notifications.GetTemplateData(newNotificationCommand(
					"--notification-skip-title",
				))
				gomega.Expect(data.Title).To(gomega.BeEmpty())
			})
		})
		ginkgo.When("no delay is defined", func() {
			ginkgo.It("should use no delay", func() {
				gomega.Expect(notifications.GetDelay(newNotificationCommand())).To(gomega.BeZero())
			})
		})
		ginkgo.When("delay is defined", func() {
			ginkgo.It("should use the specified delay", func() {
				delay := notifications.GetDelay(newNotificationCommand("--notifications-delay", "5"))
				gomega.Expect(delay).To(gomega.Equal(5 * time.Second))
			})
		})
	})
	ginkgo.Describe("GetScheme", func() {
		ginkgo.It("should return the part before the colon", func() {
			gomega.Expect(notifications.GetScheme("discord://token@id")).To(gomega.Equal("discord"))
		})
		ginkgo.It("should flag URLs without a scheme", func() {
			gomega.Expect(notifications.GetScheme("no-scheme")).To(gomega.Equal("invalid"))
			gomega.Expect(notifications.GetScheme(":oops")).To(gomega.Equal("invalid"))
		})
	})
})
