// Package report formats and emits one status line per checked artifact.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/bitrise-steplib/steps-provisioning-profile-check/profile"
)

const timestampFormat = "2006-01-02 15:04:05 MST"

// Entry is a single artifact's report line.
type Entry struct {
	Pth     string
	Verdict profile.Verdict
}

// Format renders an entry as its report line.
func Format(e Entry) string {
	switch e.Verdict.Status {
	case profile.StatusValid, profile.StatusExpired:
		return fmt.Sprintf("%s: %s (Expires: %s)", e.Pth, e.Verdict.Status, e.Verdict.ExpirationDate.UTC().Format(timestampFormat))
	case profile.StatusMissingDate:
		return fmt.Sprintf("%s: No expiration date found", e.Pth)
	case profile.StatusNoProfile:
		return fmt.Sprintf("%s: No embedded.mobileprovision found", e.Pth)
	case profile.StatusDecodeFailed:
		return fmt.Sprintf("%s: Failed to decode - %s", e.Pth, e.Verdict.Detail)
	case profile.StatusExtractFailed:
		return fmt.Sprintf("%s: Error extracting - %s", e.Pth, e.Verdict.Detail)
	case profile.StatusParseFailed:
		return fmt.Sprintf("%s: Error processing - %s", e.Pth, e.Verdict.Detail)
	default:
		return fmt.Sprintf("%s: %s", e.Pth, e.Verdict.Status)
	}
}

// Render renders entries as the full report text, one line per entry,
// in the order they were produced (directory enumeration order).
func Render(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(Format(e))
		b.WriteString("\n")
	}
	return b.String()
}

// Writer emits report lines to an output stream as they are produced.
type Writer struct {
	out io.Writer
}

// NewWriter ...
func NewWriter(out io.Writer) Writer {
	return Writer{out: out}
}

// Emit writes the entry's report line.
func (w Writer) Emit(e Entry) error {
	_, err := fmt.Fprintln(w.out, Format(e))
	return err
}
