package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

const (
	idBlock   = "block"
	idBracket = "bracket"

	// Block tags fill the chest from this slot backwards.
	lastTagSlot = 26
)

// Block is a code block or a bracket. *Action and *Bracket are the only
// implementations.
type Block interface {
	isBlock()
}

// Action is a code block: a category, an action name and its chest arguments.
type Action struct {
	Category Category
	Name     string
	Target   Selection
	Args     []Item

	// Extra holds block-specific keys written next to the fixed ones, such
	// as "attribute": "NOT" on conditions or "data": <name> on functions.
	// Values are compact JSON.
	Extra map[string]json.RawMessage
}

// Bracket opens or closes the body of the preceding conditional or repeat.
type Bracket struct {
	Open   bool
	Repeat bool
}

func (*Action) isBlock()  {}
func (*Bracket) isBlock() {}

// NewAction builds a code block. Args is never nil, matching what
// DecodeBlock produces.
func NewAction(category Category, name string, args ...Item) *Action {
	if args == nil {
		args = []Item{}
	}
	return &Action{Category: category, Name: name, Args: args}
}

// NewFunction builds a function/process style block that is named through
// its "data" attribute.
func NewFunction(category Category, name string, args ...Item) *Action {
	a := NewAction(category, "", args...)
	_ = a.SetExtra("data", name)
	return a
}

func Open(repeat bool) *Bracket  { return &Bracket{Open: true, Repeat: repeat} }
func Close(repeat bool) *Bracket { return &Bracket{Open: false, Repeat: repeat} }

// DataName returns the function or process name kept in the "data" attribute.
func (a *Action) DataName() (string, bool) {
	return a.extraString("data")
}

// Negated reports whether a condition carries the NOT attribute.
func (a *Action) Negated() bool {
	s, _ := a.extraString("attribute")
	return s == "NOT"
}

// Negate sets the NOT attribute.
func (a *Action) Negate() *Action {
	_ = a.SetExtra("attribute", "NOT")
	return a
}

// SetExtra stores v, marshaled to compact JSON, under key.
func (a *Action) SetExtra(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("extra %q: %w", key, err)
	}
	if a.Extra == nil {
		a.Extra = map[string]json.RawMessage{}
	}
	a.Extra[key] = b
	return nil
}

func (a *Action) extraString(key string) (string, bool) {
	raw, ok := a.Extra[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

type argsWire struct {
	Items []itemFragment `json:"items"`
}

type actionWire struct {
	ID     string    `json:"id"`
	Block  Category  `json:"block"`
	Action string    `json:"action"`
	Target Selection `json:"target,omitempty"`
	Args   argsWire  `json:"args"`
}

type bracketWire struct {
	ID     string `json:"id"`
	Direct string `json:"direct"`
	Type   string `json:"type"`
}

var fixedActionKeys = map[string]struct{}{
	"id": {}, "block": {}, "action": {}, "target": {}, "args": {},
}

// EncodeBlock serializes a block.
func EncodeBlock(b Block) (json.RawMessage, error) {
	switch v := b.(type) {
	case *Action:
		return encodeAction(v)
	case *Bracket:
		w := bracketWire{ID: idBracket, Direct: "close", Type: "norm"}
		if v.Open {
			w.Direct = "open"
		}
		if v.Repeat {
			w.Type = "repeat"
		}
		return json.Marshal(w)
	case nil:
		return nil, fmt.Errorf("encode block: nil block")
	}
	return nil, fmt.Errorf("encode block: unsupported type %T", b)
}

// tagSlots returns the default slot of every argument: its position, or for
// block tags 26 minus the number of tags before it.
func tagSlots(args []Item) []int {
	out := make([]int, len(args))
	tags := 0
	for i, item := range args {
		if _, ok := item.(BlockTag); ok {
			out[i] = lastTagSlot - tags
			tags++
			continue
		}
		out[i] = i
	}
	return out
}

func encodeAction(a *Action) (json.RawMessage, error) {
	slots := tagSlots(a.Args)
	items := make([]itemFragment, 0, len(a.Args))
	for i, item := range a.Args {
		frag, err := fragment(item, slots[i], a)
		if err != nil {
			return nil, fmt.Errorf("block %s/%s arg %d: %w", a.Category, a.Name, i, err)
		}
		items = append(items, frag)
	}
	b, err := json.Marshal(actionWire{
		ID:     idBlock,
		Block:  a.Category,
		Action: a.Name,
		Target: a.Target,
		Args:   argsWire{Items: items},
	})
	if err != nil {
		return nil, err
	}
	if len(a.Extra) == 0 {
		return b, nil
	}

	keys := make([]string, 0, len(a.Extra))
	for k := range a.Extra {
		if _, fixed := fixedActionKeys[k]; fixed {
			return nil, fmt.Errorf("block %s/%s: extra key %q collides with a fixed key", a.Category, a.Name, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	for _, k := range keys {
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(a.Extra[k])
		if err != nil {
			return nil, fmt.Errorf("block %s/%s extra %q: %w", a.Category, a.Name, k, err)
		}
		buf.WriteByte(',')
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeBlock parses a block, dispatching on its "id".
func DecodeBlock(raw json.RawMessage) (Block, error) {
	o, err := parseObject("block", "", raw)
	if err != nil {
		return nil, err
	}
	if !o.has("id") {
		return nil, missing("block", "id")
	}
	id, err := o.str("id")
	if err != nil {
		return nil, err
	}
	switch id {
	case idBlock:
		return decodeAction(o)
	case idBracket:
		return decodeBracket(o)
	}
	return nil, unexpected("block", "id")
}

func decodeBracket(o object) (Block, error) {
	if !o.has("direct") {
		return nil, missing("block", "direct")
	}
	if !o.has("type") {
		return nil, missing("block", "type")
	}
	direct, err := o.str("direct")
	if err != nil {
		return nil, err
	}
	typ, err := o.str("type")
	if err != nil {
		return nil, err
	}
	if direct != "open" && direct != "close" {
		return nil, unexpected("block", "direct")
	}
	if typ != "norm" && typ != "repeat" {
		return nil, unexpected("block", "type")
	}
	return &Bracket{Open: direct == "open", Repeat: typ == "repeat"}, nil
}

func decodeAction(o object) (Block, error) {
	if !o.has("block") {
		return nil, missing("block", "block")
	}
	cat, err := o.str("block")
	if err != nil {
		return nil, err
	}
	category := Category(cat)
	if !category.Valid() {
		return nil, unexpected("block", "block")
	}
	switch {
	case category.NamedByData():
		if !o.has("data") {
			return nil, missing("block", "data")
		}
	case category != CategoryElse:
		if !o.has("action") {
			return nil, missing("block", "action")
		}
	}

	a := &Action{Category: category, Args: []Item{}}
	if a.Name, err = o.optStr("action"); err != nil {
		return nil, err
	}
	target, err := o.optStr("target")
	if err != nil {
		return nil, err
	}
	if !Selection(target).Valid() {
		return nil, unexpected("block", "target")
	}
	a.Target = Selection(target)

	if o.has("args") {
		args, err := o.obj("args")
		if err != nil {
			return nil, err
		}
		var raws []json.RawMessage
		if err := args.decode("items", &raws); err != nil {
			return nil, err
		}
		var slots []int
		for i, r := range raws {
			item, slot, err := decodeFragment(r)
			if err != nil {
				return nil, fmt.Errorf("block %s/%s arg %d: %w", a.Category, a.Name, i, err)
			}
			a.Args = append(a.Args, item)
			slots = append(slots, slot)
		}
		// Keep only slots that differ from what the encoder would assign.
		for i, def := range tagSlots(a.Args) {
			if slots[i] != def {
				a.Args[i] = withSlot(a.Args[i], SlotAt(slots[i]))
			}
		}
	}

	for k, v := range o.m {
		if _, fixed := fixedActionKeys[k]; fixed {
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return nil, unexpected("block", k)
		}
		if a.Extra == nil {
			a.Extra = map[string]json.RawMessage{}
		}
		a.Extra[k] = buf.Bytes()
	}
	return a, nil
}
