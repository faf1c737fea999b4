package webhook

import (
	"testing"
)

func TestEventPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "already compact",
			body: `{"a":1,"b":"x y"}`,
			want: `{"a":1,"b":"x y"}`,
		},
		{
			name: "whitespace outside strings removed",
			body: "{ \"a\" : 1,\n\t\"b\" : [ 1, 2 ] }\n",
			want: `{"a":1,"b":[1,2]}`,
		},
		{
			name: "key order preserved",
			body: `{"z":1, "a":2}`,
			want: `{"z":1,"a":2}`,
		},
		{
			name: "html characters not escaped",
			body: `{ "title" : "<b>a & b</b>" }`,
			want: `{"title":"<b>a & b</b>"}`,
		},
		{
			name: "non-ascii text kept",
			body: `{"title": "café ✓"}`,
			want: `{"title":"café ✓"}`,
		},
		{
			name: "unicode escapes kept",
			body: `{"title": "caf\u00e9 \u2713 \u003c"}`,
			want: `{"title":"caf\u00e9 \u2713 \u003c"}`,
		},
		{
			name: "number spelling kept",
			body: `{"price": 1.50, "big": 1E3, "neg": -0, "exp": 2.0e-7}`,
			want: `{"price":1.50,"big":1E3,"neg":-0,"exp":2.0e-7}`,
		},
		{
			name: "whitespace inside strings kept",
			body: "{\"s\": \" a\\tb \"}",
			want: `{"s":" a\tb "}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Event(tt.body).Payload()
			if err != nil {
				t.Fatalf("Payload() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Payload() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "object", body: `{"a":1}`},
		{name: "object with surrounding space", body: " {}\n"},
		{name: "empty", body: "", wantErr: true},
		{name: "array", body: `[1]`, wantErr: true},
		{name: "string", body: `"x"`, wantErr: true},
		{name: "null", body: `null`, wantErr: true},
		{name: "truncated", body: `{"a":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := Event(tt.body).validate(); (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventTriggeredAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{name: "string", body: `{"triggered_at":"2024-01-01T00:00:00Z"}`, want: "2024-01-01T00:00:00Z", wantOK: true},
		{name: "missing", body: `{}`},
		{name: "empty", body: `{"triggered_at":""}`},
		{name: "number", body: `{"triggered_at":1704067200000}`},
		{name: "null", body: `{"triggered_at":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := Event(tt.body).TriggeredAt()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("TriggeredAt() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEventFromValue(t *testing.T) {
	t.Parallel()

	got, err := EventFromValue(map[string]any{"b": "<tag>", "a": 1})
	if err != nil {
		t.Fatalf("EventFromValue() error = %v", err)
	}
	if want := `{"a":1,"b":"<tag>"}`; string(got) != want {
		t.Errorf("EventFromValue() = %s, want %s", got, want)
	}
}
