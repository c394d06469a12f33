package main

import (
	"reflect"
	"testing"
)

func TestRedactLogged(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{
			name: "pin redacted",
			in:   map[string]any{"name": "club night", "pin": "2468"},
			want: map[string]any{"name": "club night", "pin": "[redacted]"},
		},
		{
			name: "guest token redacted",
			in:   map[string]any{"guest_token": "01ABCDEFGHJKMNPQRSTVWXYZ00"},
			want: map[string]any{"guest_token": "[redacted]"},
		},
		{
			name: "other fields untouched",
			in:   map[string]any{"winner_id": float64(3)},
			want: map[string]any{"winner_id": float64(3)},
		},
		{
			name: "non-object passthrough",
			in:   "plain text",
			want: "plain text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactLogged(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("redactLogged = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseMaybeJSON(t *testing.T) {
	if got := parseMaybeJSON(nil); got != "" {
		t.Fatalf("empty body = %#v, want empty string", got)
	}
	if got := parseMaybeJSON([]byte("not json")); got != "not json" {
		t.Fatalf("non-json body = %#v", got)
	}
	m, ok := parseMaybeJSON([]byte(`{"ok":true}`)).(map[string]any)
	if !ok || m["ok"] != true {
		t.Fatalf("json body = %#v", m)
	}
}
