package crypto

import (
	"testing"
)

func TestCanonicalizeJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "key ordering",
			input: `{"zulu": 1, "alpha": 2, "mike": 3}`,
			want:  `{"alpha":2,"mike":3,"zulu":1}`,
		},
		{
			name:  "nested objects and arrays",
			input: `{"b": {"y": [3, 2, 1], "x": null}, "a": true}`,
			want:  `{"a":true,"b":{"x":null,"y":[3,2,1]}}`,
		},
		{
			name:  "whitespace stripped",
			input: "{\n  \"a\" : 1 ,\n  \"b\" : \"two\"\n}",
			want:  `{"a":1,"b":"two"}`,
		},
		{
			name:  "integral floats lose their fraction",
			input: `{"n": 42.0}`,
			want:  `{"n":42}`,
		},
		{
			name:  "negative and fractional numbers",
			input: `{"lat": -74.0060, "acc": 0.5}`,
			want:  `{"acc":0.5,"lat":-74.006}`,
		},
		{
			name:  "large exponent goes scientific",
			input: `{"n": 1e21}`,
			want:  `{"n":1e21}`,
		},
		{
			name:  "control characters escaped",
			input: `{"s": "line\nbreak"}`,
			want:  `{"s":"line\nbreak"}`,
		},
		{
			name:  "unicode passes through",
			input: `{"s": "Zürich 📹"}`,
			want:  `{"s":"Zürich 📹"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CanonicalizeJSON([]byte(tc.input))
			if err != nil {
				t.Fatalf("canonicalize: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestCanonicalizeJSON_Deterministic(t *testing.T) {
	a := `{"device_id":"cam-1","tags":["a","b"],"geo":{"lat":40.7128,"lon":-74.006}}`
	b := `{
		"geo": {"lon": -74.0060, "lat": 40.7128},
		"tags": ["a", "b"],
		"device_id": "cam-1"
	}`
	ca, err := CanonicalizeJSON([]byte(a))
	if err != nil {
		t.Fatalf("canonicalize a: %v", err)
	}
	cb, err := CanonicalizeJSON([]byte(b))
	if err != nil {
		t.Fatalf("canonicalize b: %v", err)
	}
	if string(ca) != string(cb) {
		t.Fatalf("equivalent documents canonicalized differently:\n%s\n%s", ca, cb)
	}
	if SHA256Hex(ca) != SHA256Hex(cb) {
		t.Fatal("digest mismatch for equivalent documents")
	}
}

func TestCanonicalizeJSON_RejectsInvalid(t *testing.T) {
	for _, input := range []string{"", "{", `{"a":1}{"b":2}`, `{"n": NaN}`} {
		if _, err := CanonicalizeJSON([]byte(input)); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestCanonicalizeAny_StructRoundTrip(t *testing.T) {
	type payload struct {
		DeviceID string   `json:"device_id"`
		Tags     []string `json:"tags,omitempty"`
		Count    int      `json:"count"`
	}
	got, err := CanonicalizeAny(payload{DeviceID: "cam-1", Tags: []string{"x"}, Count: 3})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	want := `{"count":3,"device_id":"cam-1","tags":["x"]}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestHashCanonical(t *testing.T) {
	canonical, digest, err := HashCanonical(map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("hash canonical: %v", err)
	}
	if string(canonical) != `{"a":1,"b":2}` {
		t.Fatalf("unexpected canonical bytes: %s", canonical)
	}
	if digest != SHA256Hex(canonical) {
		t.Fatal("digest does not match canonical bytes")
	}
	if len(digest) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(digest))
	}
}
