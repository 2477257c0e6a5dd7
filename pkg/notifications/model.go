package notifications

import (
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// StaticData is the part of the template data fixed when the notifier is created.
type StaticData struct {
	Title string
	Host  string
	// Server is the root URL of the image service the events belong to.
	Server string
}

// Data is what notification templates render: the entries logged during one batch and,
// with report templates, the actions that finished in it.
type Data struct {
	StaticData
	Entries []*logrus.Entry
	Report  types.Report
}
