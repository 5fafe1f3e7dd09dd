package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// KeySeparator delimits cache key segments.
const KeySeparator = "::"

// defaultKeySerializer produces deterministic keys for the argument shapes the
// configuration domain actually passes around: realm paths, instance names,
// sub-schema path slices and multi-valued attribute maps. Anything else falls back
// to a canonical JSON rendering.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds a cache key from the method name and its arguments.
// Identical arguments always produce identical keys across runs.
func (s *defaultKeySerializer) SerializeKey(method string, args ...any) string {
	if len(args) == 0 {
		return method
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}
	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "nil"
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case []string:
		if value == nil {
			return "slice:nil"
		}
		return fmt.Sprintf("slice[%d]:{%s}", len(value), strings.Join(value, ","))
	case map[string][]string:
		if value == nil {
			return "map:nil"
		}
		return s.serializeAttributeMap(value)
	case fmt.Stringer:
		return value.String()
	default:
		return s.jsonFallback(v)
	}
}

// serializeAttributeMap renders a multi-valued attribute map with sorted keys so
// the resulting key is deterministic regardless of map iteration order.
func (s *defaultKeySerializer) serializeAttributeMap(m map[string][]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=[%s]", k, strings.Join(m[k], ",")))
	}
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

// jsonFallback favours stability over perfection: values that cannot be marshaled
// degrade to their type and default formatting rather than failing the caller.
func (s *defaultKeySerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("unserializable:%T:%v", v, v)
	}
	return fmt.Sprintf("json:%s", data)
}
