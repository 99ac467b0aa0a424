package profile

import (
	"fmt"

	"github.com/bitrise-io/go-utils/fileutil"
	v2fileutil "github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/fullsailor/pkcs7"
)

// PKCS7Decoder recovers the profile payload with a pure Go PKCS#7 parser,
// so profiles can be checked on hosts without the macOS security toolchain.
// The signature is not verified, matching the security cms -D behavior.
type PKCS7Decoder struct {
	fileManager v2fileutil.FileManager
}

// NewPKCS7Decoder ...
func NewPKCS7Decoder(fileManager v2fileutil.FileManager) PKCS7Decoder {
	return PKCS7Decoder{fileManager: fileManager}
}

// Decode ...
func (d PKCS7Decoder) Decode(profilePth, outputPth string) error {
	content, err := fileutil.ReadBytesFromFile(profilePth)
	if err != nil {
		return &DecodeError{ProfilePth: profilePth, Diagnostic: err.Error()}
	}

	p7, err := pkcs7.Parse(content)
	if err != nil {
		return &DecodeError{ProfilePth: profilePth, Diagnostic: fmt.Sprintf("failed to parse PKCS#7 container: %s", err)}
	}
	if len(p7.Content) == 0 {
		return &DecodeError{ProfilePth: profilePth, Diagnostic: "the PKCS#7 container has no payload"}
	}

	if err := d.fileManager.WriteBytes(outputPth, p7.Content); err != nil {
		return &DecodeError{ProfilePth: profilePth, Diagnostic: fmt.Sprintf("failed to write payload: %s", err)}
	}

	return nil
}
