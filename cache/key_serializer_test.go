package cache

import (
	"testing"
	"time"
)

func TestSerializeKey_MethodOnly(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	if got := serializer.SerializeKey("InstanceNames"); got != "InstanceNames" {
		t.Errorf("expected bare method name but got %q", got)
	}
}

func TestSerializeKey_ScalarArgs(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name     string
		method   string
		args     []any
		expected string
	}{
		{
			name:     "strings",
			method:   "OrganizationConfig",
			args:     []any{"/employees", "selfService"},
			expected: "OrganizationConfig::/employees::selfService",
		},
		{
			name:     "bool",
			method:   "Lookup",
			args:     []any{true},
			expected: "Lookup::true",
		},
		{
			name:     "int",
			method:   "Lookup",
			args:     []any{42},
			expected: "Lookup::42",
		},
		{
			name:     "int64",
			method:   "Lookup",
			args:     []any{int64(-7)},
			expected: "Lookup::-7",
		},
		{
			name:     "nil",
			method:   "Lookup",
			args:     []any{nil},
			expected: "Lookup::nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serializer.SerializeKey(tt.method, tt.args...); got != tt.expected {
				t.Errorf("expected %q but got %q", tt.expected, got)
			}
		})
	}
}

func TestSerializeKey_StringSlice(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	got := serializer.SerializeKey("SubConfig", "/", []string{"email", "templates"}, "welcome")
	expected := "SubConfig::/::slice[2]:{email,templates}::welcome"
	if got != expected {
		t.Errorf("expected %q but got %q", expected, got)
	}

	got = serializer.SerializeKey("SubConfig", "/", []string(nil), "welcome")
	expected = "SubConfig::/::slice:nil::welcome"
	if got != expected {
		t.Errorf("expected %q but got %q", expected, got)
	}
}

func TestSerializeKey_AttributeMapIsSorted(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	attrs := map[string][]string{
		"zeta":    {"1"},
		"alpha":   {"a", "b"},
		"enabled": {"true"},
	}

	expected := "SetAttributes::map[3]:{alpha=[a,b],enabled=[true],zeta=[1]}"
	for i := 0; i < 10; i++ {
		if got := serializer.SerializeKey("SetAttributes", attrs); got != expected {
			t.Fatalf("iteration %d: expected %q but got %q", i, expected, got)
		}
	}
}

func TestSerializeKey_Stringer(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	d := 5 * time.Second
	got := serializer.SerializeKey("Expire", d)
	expected := "Expire::5s"
	if got != expected {
		t.Errorf("expected %q but got %q", expected, got)
	}
}

func TestSerializeKey_JSONFallback(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	type query struct {
		Filter string `json:"filter"`
	}

	got := serializer.SerializeKey("Query", query{Filter: "true"})
	expected := `Query::json:{"filter":"true"}`
	if got != expected {
		t.Errorf("expected %q but got %q", expected, got)
	}
}

func TestSerializeKey_UnserializableValue(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	// Channels cannot be marshaled to JSON.
	got := serializer.SerializeKey("Lookup", make(chan int))
	if got == "" {
		t.Fatal("expected a non-empty key for an unserializable value")
	}
	if got == "Lookup" {
		t.Errorf("expected the argument to contribute to the key but got %q", got)
	}
}
