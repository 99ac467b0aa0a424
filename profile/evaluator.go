package profile

import (
	"time"

	"github.com/bitrise-io/go-xcode/plistutil"
)

// LoadPayload parses a decoded profile payload into its plist data.
func LoadPayload(payloadPth string) (plistutil.PlistData, error) {
	return plistutil.NewPlistDataFromFile(payloadPth)
}

// Evaluate classifies the decoded payload at payloadPth against referenceTime.
// referenceTime is an explicit input (not wall clock time) so runs are reproducible.
func Evaluate(payloadPth string, referenceTime time.Time) Verdict {
	data, err := LoadPayload(payloadPth)
	if err != nil {
		return Verdict{Status: StatusParseFailed, Detail: err.Error()}
	}
	return EvaluatePayload(data, referenceTime)
}

// EvaluatePayload classifies an already parsed payload against referenceTime.
// An ExpirationDate strictly before referenceTime means expired, a date at or
// after it means valid. The comparison is instant level, not calendar day.
func EvaluatePayload(data plistutil.PlistData, referenceTime time.Time) Verdict {
	verdict := Verdict{}
	verdict.Name, _ = data.GetString("Name")
	verdict.UUID, _ = data.GetString("UUID")

	expiry, found := data.GetTime("ExpirationDate")
	if !found {
		verdict.Status = StatusMissingDate
		return verdict
	}

	verdict.ExpirationDate = expiry
	if expiry.Before(referenceTime) {
		verdict.Status = StatusExpired
	} else {
		verdict.Status = StatusValid
	}

	return verdict
}
