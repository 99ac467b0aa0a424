package main

import (
	"os"

	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-provisioning-profile-check/analyze"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.NewLogger()

	opts, err := analyze.ParseArgs(os.Args[1:])
	if err != nil {
		logger.Errorf(err.Error())
		logger.Printf("Usage: analyze /path/to/code [swift|cpp|all] [basic|advanced]")
		logger.Printf("  - 'basic' runs SwiftLint/Cppcheck; 'advanced' adds Clang-Tidy/Infer")
		return 1
	}

	launcher := analyze.NewLauncher(logger, command.NewFactory(env.NewRepository()))
	launcher.Run(opts)

	return 0
}
