package template

import (
	"bytes"
	"encoding/json"
	"strings"
)

// object is a decoded JSON object whose values are decoded lazily, so every
// lookup can report which key was missing or malformed.
type object struct {
	scope  string
	prefix string
	m      map[string]json.RawMessage
}

func parseObject(scope, prefix string, raw json.RawMessage) (object, error) {
	o := object{scope: scope, prefix: prefix}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		key := strings.TrimSuffix(prefix, ".")
		if key == "" {
			key = scope
		}
		return o, unexpected(scope, key)
	}
	if err := json.Unmarshal(trimmed, &o.m); err != nil {
		return o, unexpected(scope, strings.TrimSuffix(prefix, "."))
	}
	return o, nil
}

func (o object) has(key string) bool {
	_, ok := o.m[key]
	return ok
}

func (o object) path(key string) string { return o.prefix + key }

func (o object) raw(key string) (json.RawMessage, error) {
	v, ok := o.m[key]
	if !ok {
		return nil, missing(o.scope, o.path(key))
	}
	return v, nil
}

func (o object) decode(key string, dst any) error {
	v, err := o.raw(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return unexpected(o.scope, o.path(key))
	}
	return nil
}

func (o object) str(key string) (string, error) {
	var s string
	err := o.decode(key, &s)
	return s, err
}

func (o object) optStr(key string) (string, error) {
	if !o.has(key) {
		return "", nil
	}
	return o.str(key)
}

func (o object) float(key string) (float64, error) {
	var f float64
	err := o.decode(key, &f)
	return f, err
}

func (o object) int(key string) (int, error) {
	var n int
	err := o.decode(key, &n)
	return n, err
}

func (o object) bool(key string) (bool, error) {
	var b bool
	err := o.decode(key, &b)
	return b, err
}

func (o object) obj(key string) (object, error) {
	v, err := o.raw(key)
	if err != nil {
		return object{}, err
	}
	return parseObject(o.scope, o.path(key)+".", v)
}

// numberText accepts either a JSON string or a JSON number and returns its text.
func (o object) numberText(key string) (string, error) {
	v, err := o.raw(key)
	if err != nil {
		return "", err
	}
	var s string
	if json.Unmarshal(v, &s) == nil {
		return s, nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", unexpected(o.scope, o.path(key))
	}
	return n.String(), nil
}
