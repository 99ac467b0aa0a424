package profile

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/bitrise-io/go-utils/errorutil"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/log"
)

// Decoder strips the CMS signature envelope from a provisioning profile
// and writes the inner plist payload to outputPth.
// On success outputPth contains the complete payload, on failure no output
// file is left behind.
type Decoder interface {
	Decode(profilePth, outputPth string) error
}

// DecodeError carries the decoding facility's diagnostic text verbatim.
type DecodeError struct {
	ProfilePth string
	Diagnostic string
}

// Error ...
func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %s", e.ProfilePth, e.Diagnostic)
}

// CMSDecoder decodes profiles with the macOS security command:
// security cms -D -i <profile> -o <output>.
// There is no timeout on the call, a hanging security process hangs the check.
type CMSDecoder struct {
	cmdFactory        command.Factory
	additionalOptions []string
	logger            log.Logger

	tool string
}

// NewCMSDecoder ...
func NewCMSDecoder(cmdFactory command.Factory, additionalOptions []string, logger log.Logger) *CMSDecoder {
	return &CMSDecoder{
		cmdFactory:        cmdFactory,
		additionalOptions: additionalOptions,
		logger:            logger,
		tool:              "security",
	}
}

// Decode ...
func (d *CMSDecoder) Decode(profilePth, outputPth string) error {
	args := []string{"cms", "-D", "-i", profilePth, "-o", outputPth}
	args = append(args, d.additionalOptions...)

	var errBuffer bytes.Buffer
	cmd := d.cmdFactory.Create(d.tool, args, &command.Opts{Stderr: &errBuffer})

	d.logger.Debugf("$ %s", cmd.PrintableCommandArgs())

	if err := cmd.Run(); err != nil {
		// security can leave a partially written output file behind
		if removeErr := os.Remove(outputPth); removeErr != nil && !os.IsNotExist(removeErr) {
			d.logger.Warnf("Failed to remove partial output of %s: %s", profilePth, removeErr)
		}

		diagnostic := strings.TrimSpace(errBuffer.String())
		if !errorutil.IsExitStatusError(err) || diagnostic == "" {
			diagnostic = err.Error()
		}

		return &DecodeError{ProfilePth: profilePth, Diagnostic: diagnostic}
	}

	return nil
}
