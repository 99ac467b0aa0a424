package main

import (
	"os"

	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-provisioning-profile-check/report"
	"github.com/bitrise-steplib/steps-provisioning-profile-check/step"
	"github.com/bitrise-steplib/steps-provisioning-profile-check/steprunner"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.NewLogger()
	envRepository := env.NewRepository()

	checker := step.NewProfileChecker(
		stepconf.NewInputParser(envRepository),
		logger,
		command.NewFactory(envRepository),
		pathutil.NewPathProvider(),
		pathutil.NewPathChecker(),
		fileutil.NewFileManager(),
		report.NewWriter(os.Stdout),
	)

	return steprunner.NewStepRunner[step.Config, step.Result](logger).Run(checker)
}
