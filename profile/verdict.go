package profile

import "time"

// Status is the terminal state of an artifact's check pipeline.
type Status string

const (
	// StatusValid means the profile's ExpirationDate is at or after the reference time.
	StatusValid Status = "VALID"
	// StatusExpired means the profile's ExpirationDate is strictly before the reference time.
	StatusExpired Status = "EXPIRED"
	// StatusMissingDate means the decoded payload has no ExpirationDate field.
	StatusMissingDate Status = "MISSING_DATE"
	// StatusDecodeFailed means the CMS container could not be decoded.
	StatusDecodeFailed Status = "DECODE_FAILED"
	// StatusExtractFailed means the archive could not be read or the entry could not be written.
	StatusExtractFailed Status = "EXTRACT_FAILED"
	// StatusParseFailed means the decoded payload is not a well formed plist.
	StatusParseFailed Status = "PARSE_FAILED"
	// StatusNoProfile means the archive has no embedded.mobileprovision entry.
	// This is a legitimate terminal state for archives without embedded signing, not a fault.
	StatusNoProfile Status = "NO_PROFILE"
)

// Verdict is the immutable result of checking a single artifact.
type Verdict struct {
	Status         Status
	ExpirationDate time.Time // set for StatusValid and StatusExpired
	Detail         string    // underlying tool/library diagnostic for the failure statuses
	Name           string    // profile name, best effort
	UUID           string    // profile UUID, best effort
}
