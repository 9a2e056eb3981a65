// Package itemnbt writes and splits the stringified NBT (SNBT) item blobs
// the companion exchanges for inventory commands.
package itemnbt

import (
	"fmt"
	"strings"

	"github.com/Tnze/go-mc/nbt"
)

// Marshal encodes v (structs tagged `nbt:"..."`, maps, strings, int8 for
// bytes) as SNBT.
func Marshal(v any) (string, error) {
	data, err := nbt.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("snbt encode: %w", err)
	}
	var out nbt.StringifiedMessage
	if err := nbt.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("snbt encode: %w", err)
	}
	return string(out), nil
}

// SplitList splits an SNBT list such as "[{...},{...}]" into the SNBT text
// of its elements.
func SplitList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("snbt list: expected [...], got %.32q", s)
	}
	if strings.TrimSpace(s[1:len(s)-1]) == "" {
		return []string{}, nil
	}
	data, err := nbt.Marshal(nbt.StringifiedMessage(s))
	if err != nil {
		return nil, fmt.Errorf("snbt list: %w", err)
	}
	var elems []nbt.StringifiedMessage
	if err := nbt.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("snbt list: %w", err)
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		out = append(out, string(e))
	}
	return out, nil
}
