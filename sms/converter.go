package sms

import (
	"sort"

	"github.com/gravitational/trace"
)

// NameField is the JSON field carrying a config instance's name. It is injected
// into read results and never stored as an attribute.
const NameField = "name"

// Converter translates between the JSON bodies of resource requests and the
// multi-valued attribute sets the config tree stores.
type Converter struct{}

// NewConverter creates a Converter.
func NewConverter() *Converter {
	return &Converter{}
}

// FromJSON extracts attributes from request content. Values must be strings or
// arrays of strings; the name field is skipped. Anything else is a bad request.
func (c *Converter) FromJSON(content map[string]any) (Attributes, error) {
	attrs := make(Attributes, len(content))
	for key, value := range content {
		if key == NameField {
			continue
		}
		switch v := value.(type) {
		case string:
			attrs[key] = []string{v}
		case []string:
			attrs[key] = append([]string(nil), v...)
		case []any:
			values := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, trace.BadParameter("attribute %q contains a non-string value %T", key, item)
				}
				values = append(values, s)
			}
			attrs[key] = values
		default:
			return nil, trace.BadParameter("attribute %q has unsupported type %T", key, value)
		}
	}
	return attrs, nil
}

// ToJSON renders attributes as JSON content. Values are emitted as sorted string
// arrays so the rendering is deterministic.
func (c *Converter) ToJSON(attrs Attributes) map[string]any {
	content := make(map[string]any, len(attrs))
	for key, values := range attrs {
		sorted := append([]string(nil), values...)
		sort.Strings(sorted)
		content[key] = sorted
	}
	return content
}
