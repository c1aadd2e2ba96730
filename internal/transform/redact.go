package transform

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bidwire/gate/internal/model"
)

// Placeholder replaces every stripped contact token. It contains no digits,
// @ signs, or handle-like runs, so redaction is idempotent.
const Placeholder = "[redacted]"

var (
	// Emails first: the handle pattern below would otherwise eat the
	// local part of an address.
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Phone numbers with optional country code and separators, down to bare
	// seven-digit forms like "555-1234".
	phonePattern = regexp.MustCompile(`(?:\+?\d{1,2}[\s.-]?)?(?:\(\d{3}\)|\d{3})[\s.-]?\d{3,4}[\s.-]?\d{4}|\d{3}[\s.-]\d{4}`)

	// External messaging handles: @name tokens and "reach me on <service> ..."
	// style mentions.
	handlePattern  = regexp.MustCompile(`@[A-Za-z0-9_.]{2,}`)
	servicePattern = regexp.MustCompile(`(?i)\b(whatsapp|telegram|signal|wechat|discord)\b[\s:]+[^\s,.;]+`)
)

// contactFields are the structured payload keys nulled during redaction.
var contactFields = map[string]bool{
	"phone":         true,
	"phone_number":  true,
	"email":         true,
	"contact":       true,
	"contact_info":  true,
	"whatsapp":      true,
	"telegram":      true,
	"signal_handle": true,
}

// RedactText strips contact-info patterns from free text. Applying it to
// already-redacted text yields unchanged output.
func RedactText(s string) string {
	s = emailPattern.ReplaceAllString(s, Placeholder)
	s = servicePattern.ReplaceAllString(s, Placeholder)
	s = handlePattern.ReplaceAllString(s, Placeholder)
	s = phonePattern.ReplaceAllString(s, Placeholder)
	return s
}

// redactFields nulls contact-sensitive keys in a structured payload.
// Returns ErrTransform when the payload is not a JSON object.
func redactFields(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return raw, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: structured payload: %v", model.ErrTransform, err)
	}

	changed := false
	for k := range fields {
		if contactFields[strings.ToLower(k)] {
			fields[k] = json.RawMessage("null")
			changed = true
		}
	}
	if !changed {
		return raw, nil
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: re-encode payload: %v", model.ErrTransform, err)
	}
	return out, nil
}
