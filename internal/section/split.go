package section

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// RequirementField is the payload key holding the requirement document.
const RequirementField = "REQUIREMENT"

// ErrInvalidPayload reports a payload that is neither a JSON-encoded object
// nor an already-decoded mapping.
var ErrInvalidPayload = errors.New("payload must be a JSON object or a map")

// Split normalizes the requirement document held in payload and splits it
// into a Map of canonical section label to body text.
//
// The payload may be a JSON-encoded object (string, []byte or
// json.RawMessage) or an already-decoded map. A missing requirement field
// yields an empty document, not an error. Text before the first header is
// discarded, each body contribution is trimmed and newline-terminated, and a
// repeated label appends to its first entry instead of creating a new key.
func Split(payload any) (*Map, error) {
	doc, err := RequirementText(payload)
	if err != nil {
		return nil, err
	}

	doc = Normalize(doc)

	m := NewMap()
	locs := reHeader.FindAllStringIndex(doc, -1)
	for i, loc := range locs {
		label := doc[loc[0]:loc[1]]
		m.Add(label)

		end := len(doc)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(doc[loc[1]:end])
		if body != "" {
			m.Append(label, body+"\n")
		}
	}
	return m, nil
}

// RequirementText extracts the raw requirement document from a payload
// without splitting it. The payload forms accepted match Split; a missing
// requirement field yields an empty string.
func RequirementText(payload any) (string, error) {
	var data map[string]any
	switch p := payload.(type) {
	case map[string]any:
		data = p
	case map[string]string:
		data = make(map[string]any, len(p))
		for k, v := range p {
			data[k] = v
		}
	case string:
		if err := json.Unmarshal([]byte(p), &data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	case []byte:
		if err := json.Unmarshal(p, &data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	case json.RawMessage:
		if err := json.Unmarshal(p, &data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	default:
		return "", fmt.Errorf("%w: got %T", ErrInvalidPayload, payload)
	}

	doc, _ := data[RequirementField].(string)
	return doc, nil
}
