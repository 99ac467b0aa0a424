// Package pretty renders values for verbose debug logs.
package pretty

import (
	"encoding/json"
	"fmt"
)

// Object renders o as indented JSON, falling back to fmt on marshal failure.
func Object(o interface{}) string {
	b, err := json.MarshalIndent(o, "", "\t")
	if err != nil {
		return fmt.Sprint(o)
	}
	return string(b)
}
