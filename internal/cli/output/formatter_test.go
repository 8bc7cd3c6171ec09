package output

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type sample struct {
	Name    string `json:"name"`
	Window  int    `json:"window"`
	Nested  inner  `json:"nested"`
	Skipped string `json:"-"`
}

type inner struct {
	Seq uint64 `json:"seq"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"table", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	if _, ok := NewFormatter("unknown").(*TextFormatter); !ok {
		t.Error("expected TextFormatter by default")
	}
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name string
		data any
		want []string
	}{
		{"string", "hello", []string{"hello\n"}},
		{"struct", sample{Name: "c1", Window: -4, Nested: inner{Seq: 7}, Skipped: "x"}, []string{"name", "c1", "window", "-4", "nested.seq", "7"}},
		{"map", map[string]any{"b": 2, "a": ""}, []string{"a", "-", "b", "2"}},
		{"slice", []sample{{Name: "one"}, {Name: "two"}}, []string{"one", "two"}},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&TextFormatter{}).Format(&buf, tt.data); err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output %q missing %q", out, want)
				}
			}
			if strings.Contains(out, "Skipped") {
				t.Error("json:\"-\" field was printed")
			}
		})
	}

	var buf bytes.Buffer
	(&TextFormatter{}).Format(&buf, map[string]any{"b": 1, "a": 2})
	if strings.Index(buf.String(), "a") > strings.Index(buf.String(), "b") {
		t.Errorf("keys not sorted: %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, sample{Name: "c1"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"name": "c1"`) {
		t.Errorf("output = %s", buf.String())
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := struct {
		Name    string `json:"name"`
		Payload []byte `json:"payload"`
	}{"c1", []byte("hi")}
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}

	var back map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}
	if back["name"] != "c1" {
		t.Errorf("name = %v", back["name"])
	}
	if back["payload"] != "aGk=" {
		t.Errorf("payload = %v, want base64 like the JSON output", back["payload"])
	}
}
