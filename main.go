package main

import (
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/gifdeck/cmd"
)

// init sets the log level used until flags are parsed.
func init() {
	logrus.SetLevel(logrus.InfoLevel)
}

func main() {
	cmd.Execute()
}
