package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	cmd "github.com/amimof/metal/cmd/metalctl"
)

var (
	// VERSION of the app. Is set when project is built and should never be set manually
	VERSION string
	// COMMIT is the Git commit currently used when compiling. Is set when project is built and should never be set manually
	COMMIT string
	// BRANCH is the Git branch currently used when compiling. Is set when project is built and should never be set manually
	BRANCH string
	// GOVERSION used to compile. Is set when project is built and should never be set manually
	GOVERSION string
	// DATE used to compile. Is set when project is built and should never be set manually
	DATE string
)

func main() {
	cmd.SetVersionInfo(VERSION, COMMIT, DATE, BRANCH, GOVERSION)

	ctx := context.Background()
	if err := cmd.NewDefaultCommand().ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
	os.Exit(0)
}
