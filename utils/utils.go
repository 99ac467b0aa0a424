package utils

import (
	"github.com/bitrise-io/go-steputils/tools"
	"github.com/bitrise-io/go-utils/command"
	"github.com/bitrise-io/go-utils/fileutil"
)

// IsToolInstalled ...
func IsToolInstalled(name string) bool {
	cmd := command.New("which", name)
	out, err := cmd.RunAndReturnTrimmedCombinedOutput()
	return err == nil && out != ""
}

// ExportOutputFileContent writes content to destinationPth and exposes the
// path in the envKey environment variable.
func ExportOutputFileContent(content, destinationPth, envKey string) error {
	if err := fileutil.WriteStringToFile(destinationPth, content); err != nil {
		return err
	}

	return tools.ExportEnvironmentWithEnvman(envKey, destinationPth)
}

// ExportOutputValue exposes value in the envKey environment variable.
func ExportOutputValue(value, envKey string) error {
	return tools.ExportEnvironmentWithEnvman(envKey, value)
}
