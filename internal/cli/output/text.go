package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// TextFormatter prints objects as aligned "key  value" lines and lists
// as blank-line separated blocks. Plain strings are printed as is.
type TextFormatter struct{}

// Format implements Formatter.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	case []byte:
		_, err := fmt.Fprintln(w, string(v))
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(w, v.String())
		return err
	}

	// Normalize through JSON so struct tags decide the keys.
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	switch g := generic.(type) {
	case map[string]any:
		writeObject(tw, "", g)
	case []any:
		for i, item := range g {
			if i > 0 {
				fmt.Fprintln(tw)
			}
			if obj, ok := item.(map[string]any); ok {
				writeObject(tw, "", obj)
			} else {
				fmt.Fprintln(tw, scalar(item))
			}
		}
	default:
		fmt.Fprintln(tw, scalar(g))
	}
	return tw.Flush()
}

func writeObject(w io.Writer, prefix string, obj map[string]any) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := prefix + k
		if nested, ok := obj[k].(map[string]any); ok {
			writeObject(w, name+".", nested)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", name, scalar(obj[k]))
	}
}

func scalar(v any) string {
	switch s := v.(type) {
	case nil:
		return "-"
	case string:
		if s == "" {
			return "-"
		}
		return s
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	case []any:
		parts := make([]string, len(s))
		for i, item := range s {
			parts[i] = scalar(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(s)
	}
}
