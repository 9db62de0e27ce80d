package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	yaml "go.yaml.in/yaml/v3"
)

// Option is one answer choice. Key is the letter used in the file ("a", "b", ...).
type Option struct {
	Key  string
	Text string
}

// Options keeps answer choices in file order, which is also display order.
//
// In files it is an object ({"a": "Paris", "b": "Rome"}); a plain array of
// strings is accepted too and gets keys a, b, c, ...
type Options []Option

// Texts returns the option texts in display order.
func (o Options) Texts() []string {
	out := make([]string, len(o))
	for i, opt := range o {
		out[i] = opt.Text
	}
	return out
}

// set appends key, or replaces the text in place when the key repeats.
func (o Options) set(key, text string) Options {
	for i := range o {
		if o[i].Key == key {
			o[i].Text = text
			return o
		}
	}
	return append(o, Option{Key: key, Text: text})
}

func autoKey(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return fmt.Sprintf("opt%d", i+1)
}

func (o *Options) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return errors.New("options must be an object or an array")
	}

	var out Options
	for i := 0; dec.More(); i++ {
		key := autoKey(i)
		if delim == '{' {
			kt, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ = kt.(string)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("option %q: %w", key, err)
		}
		text, err := scalarText(v)
		if err != nil {
			return fmt.Errorf("option %q: %w", key, err)
		}
		out = out.set(key, text)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(opt.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func scalarText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		if x {
			return "true", nil
		}
		return "false", nil
	default:
		return "", errors.New("option text must be a scalar")
	}
}

func (o *Options) UnmarshalYAML(node *yaml.Node) error {
	var out Options
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: option %q must be a scalar", v.Line, k.Value)
			}
			out = out.set(k.Value, v.Value)
		}
	case yaml.SequenceNode:
		for i, v := range node.Content {
			if v.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: option %d must be a scalar", v.Line, i+1)
			}
			out = append(out, Option{Key: autoKey(i), Text: v.Value})
		}
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*o = nil
			return nil
		}
		return fmt.Errorf("line %d: options must be a mapping or a sequence", node.Line)
	default:
		return fmt.Errorf("line %d: options must be a mapping or a sequence", node.Line)
	}
	*o = out
	return nil
}
