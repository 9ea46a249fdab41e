package activity

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-masker"
)

const maskedValueField = "secret"

// redactedValue replaces a sensitive value the masker could not process.
const redactedValue = "****"

var sensitiveOptionMarkers = []string{"password", "secret", "token", "key"}

var defaultMaskerOnce sync.Once

// DefaultMasker returns a configured masker instance with the default denylist.
func DefaultMasker() *masker.Masker {
	defaultMaskerOnce.Do(func() {
		if masker.Default == nil {
			return
		}
		registerDefaultMaskFields(masker.Default)
	})
	return masker.Default
}

// IsSensitiveOption reports whether values stored under the option name must
// be masked before they reach the audit log.
func IsSensitiveOption(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false
	}
	for _, marker := range sensitiveOptionMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// SanitizeOptionValue masks the value of a sensitive option. Values of other
// options are returned untouched.
func SanitizeOptionValue(mask *masker.Masker, name string, value any) any {
	if value == nil || !IsSensitiveOption(name) {
		return value
	}
	if mask == nil {
		mask = DefaultMasker()
	}
	if mask == nil {
		return redactedValue
	}
	masked, err := mask.Mask(map[string]any{maskedValueField: stringifyValue(value)})
	if err != nil {
		return redactedValue
	}
	payload, ok := masked.(map[string]any)
	if !ok {
		return redactedValue
	}
	out, ok := payload[maskedValueField]
	if !ok {
		return redactedValue
	}
	return out
}

func stringifyValue(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(raw)
}

func registerDefaultMaskFields(mask *masker.Masker) {
	if mask == nil {
		return
	}
	mask.RegisterMaskField("Secret", "filled4")
	mask.RegisterMaskField(maskedValueField, "filled4")
}
