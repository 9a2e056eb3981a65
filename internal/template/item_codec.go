package template

import (
	"encoding/json"
	"fmt"
	"strings"
)

const infiniteDuration = 1000000

type itemBody struct {
	ID   Kind `json:"id"`
	Data any  `json:"data"`
}

type itemFragment struct {
	Item itemBody `json:"item"`
	Slot int      `json:"slot"`
}

type nameData struct {
	Name string `json:"name"`
}

type coords struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

type locationData struct {
	IsBlock bool   `json:"isBlock"`
	Loc     coords `json:"loc"`
}

type vectorData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type soundData struct {
	Pitch float64 `json:"pitch"`
	Vol   float64 `json:"vol"`
	Sound string  `json:"sound"`
}

type customSoundData struct {
	Pitch float64 `json:"pitch"`
	Vol   float64 `json:"vol"`
	Key   string  `json:"key"`
}

type clusterData struct {
	Amount     int     `json:"amount"`
	Horizontal float64 `json:"horizontal"`
	Vertical   float64 `json:"vertical"`
}

type particleWire struct {
	RGB             int     `json:"rgb"`
	ColorVariation  float64 `json:"colorVariation"`
	RGBFade         int     `json:"rgb_fade"`
	Size            float64 `json:"size"`
	SizeVariation   float64 `json:"sizeVariation"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Z               float64 `json:"z"`
	MotionVariation float64 `json:"motionVariation"`
	Material        string  `json:"material"`
	Roll            float64 `json:"roll"`
}

type particleData struct {
	Particle string       `json:"particle"`
	Cluster  clusterData  `json:"cluster"`
	Data     particleWire `json:"data"`
}

type potionData struct {
	Pot string `json:"pot"`
	Dur int    `json:"dur"`
	Amp int    `json:"amp"`
}

type variableData struct {
	Name  string        `json:"name"`
	Scope VariableScope `json:"scope"`
}

type gameValueData struct {
	Type   string    `json:"type"`
	Target Selection `json:"target"`
}

type parameterData struct {
	Name         string    `json:"name"`
	Type         DataType  `json:"type"`
	Plural       bool      `json:"plural"`
	Optional     bool      `json:"optional"`
	DefaultValue *itemBody `json:"default_value,omitempty"`
	Description  string    `json:"description,omitempty"`
	Note         string    `json:"note,omitempty"`
}

type blockTagData struct {
	Option string   `json:"option"`
	Tag    string   `json:"tag"`
	Action string   `json:"action,omitempty"`
	Block  Category `json:"block,omitempty"`
}

// EncodeItem serializes item as a chest fragment. position is the slot used
// when the item has none of its own.
func EncodeItem(item Item, position int) (json.RawMessage, error) {
	frag, err := fragment(item, position, nil)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frag)
}

func fragment(item Item, slot int, owner *Action) (itemFragment, error) {
	body, err := encodeBody(item, owner)
	if err != nil {
		return itemFragment{}, err
	}
	return itemFragment{Item: body, Slot: item.slot().resolve(slot)}, nil
}

func encodeBody(item Item, owner *Action) (itemBody, error) {
	if item == nil {
		return itemBody{}, fmt.Errorf("encode item: nil item")
	}
	var data any
	switch v := item.(type) {
	case String:
		data = nameData{Name: v.Value}
	case Text:
		data = nameData{Name: v.Value}
	case Number:
		data = nameData{Name: v.Value}
	case Location:
		data = locationData{Loc: coords{X: v.X, Y: v.Y, Z: v.Z, Pitch: v.Pitch, Yaw: v.Yaw}}
	case Vector:
		data = vectorData{X: v.X, Y: v.Y, Z: v.Z}
	case Sound:
		if v.Custom {
			data = customSoundData{Pitch: v.Pitch, Vol: v.Volume, Key: v.Name}
		} else {
			data = soundData{Pitch: v.Pitch, Vol: v.Volume, Sound: v.Name}
		}
	case Particle:
		d := v.Data
		data = particleData{
			Particle: v.Name,
			Cluster:  clusterData{Amount: v.Amount, Horizontal: v.Spread[0], Vertical: v.Spread[1]},
			Data: particleWire{
				RGB:             d.Color,
				ColorVariation:  d.ColorVariation,
				RGBFade:         d.FadeColor,
				Size:            d.Size,
				SizeVariation:   d.SizeVariation,
				X:               d.Motion[0],
				Y:               d.Motion[1],
				Z:               d.Motion[2],
				MotionVariation: d.MotionVariation,
				Material:        strings.ToUpper(d.Material),
				Roll:            d.Roll,
			},
		}
	case Potion:
		dur := v.Duration
		if dur == -1 {
			dur = infiniteDuration
		}
		data = potionData{Pot: v.Effect, Dur: dur, Amp: v.Amplifier - 1}
	case Variable:
		data = variableData{Name: v.Name, Scope: v.Scope}
	case GameValue:
		data = gameValueData{Type: v.Type, Target: v.Target}
	case Parameter:
		p := parameterData{
			Name:        v.Name,
			Type:        v.Type,
			Plural:      v.Plural,
			Optional:    v.Default == nil,
			Description: v.Description,
			Note:        v.Note,
		}
		if v.Default != nil {
			def, err := encodeBody(v.Default, nil)
			if err != nil {
				return itemBody{}, fmt.Errorf("parameter %q default: %w", v.Name, err)
			}
			p.DefaultValue = &def
		}
		data = p
	case BlockTag:
		t := blockTagData{Option: v.Option, Tag: v.Tag}
		if owner != nil {
			t.Action = owner.Name
			if t.Action == "" {
				t.Action = "dynamic"
			}
			t.Block = owner.Category
		}
		data = t
	default:
		return itemBody{}, fmt.Errorf("encode item: unsupported type %T", item)
	}
	return itemBody{ID: item.Kind(), Data: data}, nil
}

// DecodeItem parses a chest fragment. The returned item is pinned to the
// fragment's slot.
func DecodeItem(raw json.RawMessage) (Item, error) {
	item, slot, err := decodeFragment(raw)
	if err != nil {
		return nil, err
	}
	return withSlot(item, SlotAt(slot)), nil
}

// decodeFragment parses a fragment into an item with an unassigned slot
// and returns the wire slot separately.
func decodeFragment(raw json.RawMessage) (Item, int, error) {
	o, err := parseObject("item", "", raw)
	if err != nil {
		return nil, 0, err
	}
	if !o.has("slot") {
		return nil, 0, missing("item", "slot")
	}
	if !o.has("item") {
		return nil, 0, missing("item", "item")
	}
	slot, err := o.int("slot")
	if err != nil {
		return nil, 0, err
	}
	body, err := o.obj("item")
	if err != nil {
		return nil, 0, err
	}
	item, err := decodeBody(body, Slot{})
	if err != nil {
		return nil, 0, err
	}
	return item, slot, nil
}

// decodeBody parses an {"id","data"} object.
func decodeBody(body object, slot Slot) (Item, error) {
	if !body.has("id") {
		return nil, missing("item", body.path("id"))
	}
	if !body.has("data") {
		return nil, missing("item", body.path("data"))
	}
	id, err := body.str("id")
	if err != nil {
		return nil, err
	}
	d, err := body.obj("data")
	if err != nil {
		return nil, err
	}

	switch Kind(id) {
	case KindString:
		s, err := d.str("name")
		return String{Value: s, Slot: slot}, err
	case KindText:
		s, err := d.str("name")
		return Text{Value: s, Slot: slot}, err
	case KindNumber:
		s, err := d.numberText("name")
		return Number{Value: s, Slot: slot}, err
	case KindLocation:
		return decodeLocation(d, slot)
	case KindVector:
		return decodeVector(d, slot)
	case KindSound:
		return decodeSound(d, slot)
	case KindParticle:
		return decodeParticle(d, slot)
	case KindPotion:
		return decodePotion(d, slot)
	case KindVariable:
		name, err := d.str("name")
		if err != nil {
			return nil, err
		}
		scope, err := d.str("scope")
		if err != nil {
			return nil, err
		}
		if !VariableScope(scope).Valid() {
			return nil, unexpected("item", d.path("scope"))
		}
		return Variable{Name: name, Scope: VariableScope(scope), Slot: slot}, nil
	case KindGameValue:
		typ, err := d.str("type")
		if err != nil {
			return nil, err
		}
		target, err := d.str("target")
		if err != nil {
			return nil, err
		}
		if !Selection(target).Valid() {
			return nil, unexpected("item", d.path("target"))
		}
		return GameValue{Type: typ, Target: Selection(target), Slot: slot}, nil
	case KindParameter:
		return decodeParameter(d, slot)
	case KindBlockTag:
		tag, err := d.str("tag")
		if err != nil {
			return nil, err
		}
		option, err := d.str("option")
		if err != nil {
			return nil, err
		}
		return BlockTag{Tag: tag, Option: option, Slot: slot}, nil
	}
	return nil, unexpected("item", body.path("id"))
}

func decodeLocation(d object, slot Slot) (Item, error) {
	loc, err := d.obj("loc")
	if err != nil {
		return nil, err
	}
	var out Location
	for _, f := range []struct {
		key string
		dst *float64
	}{{"x", &out.X}, {"y", &out.Y}, {"z", &out.Z}, {"pitch", &out.Pitch}, {"yaw", &out.Yaw}} {
		if *f.dst, err = loc.float(f.key); err != nil {
			return nil, err
		}
	}
	out.Slot = slot
	return out, nil
}

func decodeVector(d object, slot Slot) (Item, error) {
	var out Vector
	var err error
	if out.X, err = d.float("x"); err != nil {
		return nil, err
	}
	if out.Y, err = d.float("y"); err != nil {
		return nil, err
	}
	if out.Z, err = d.float("z"); err != nil {
		return nil, err
	}
	out.Slot = slot
	return out, nil
}

func decodeSound(d object, slot Slot) (Item, error) {
	out := Sound{Slot: slot}
	var err error
	if out.Pitch, err = d.float("pitch"); err != nil {
		return nil, err
	}
	if out.Volume, err = d.float("vol"); err != nil {
		return nil, err
	}
	if d.has("key") {
		out.Custom = true
		out.Name, err = d.str("key")
	} else {
		out.Name, err = d.str("sound")
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeParticle(d object, slot Slot) (Item, error) {
	out := Particle{Slot: slot}
	var err error
	if out.Name, err = d.str("particle"); err != nil {
		return nil, err
	}
	cluster, err := d.obj("cluster")
	if err != nil {
		return nil, err
	}
	if out.Amount, err = cluster.int("amount"); err != nil {
		return nil, err
	}
	if out.Spread[0], err = cluster.float("horizontal"); err != nil {
		return nil, err
	}
	if out.Spread[1], err = cluster.float("vertical"); err != nil {
		return nil, err
	}
	data, err := d.obj("data")
	if err != nil {
		return nil, err
	}
	var w particleWire
	if err := d.decode("data", &w); err != nil {
		return nil, err
	}
	for _, key := range []string{"rgb", "colorVariation", "rgb_fade", "size", "sizeVariation",
		"x", "y", "z", "motionVariation", "material", "roll"} {
		if !data.has(key) {
			return nil, missing("item", data.path(key))
		}
	}
	out.Data = ParticleData{
		Color:           w.RGB,
		ColorVariation:  w.ColorVariation,
		FadeColor:       w.RGBFade,
		Size:            w.Size,
		SizeVariation:   w.SizeVariation,
		Motion:          [3]float64{w.X, w.Y, w.Z},
		MotionVariation: w.MotionVariation,
		Material:        strings.ToLower(w.Material),
		Roll:            w.Roll,
	}
	return out, nil
}

func decodePotion(d object, slot Slot) (Item, error) {
	out := Potion{Slot: slot}
	var err error
	if out.Effect, err = d.str("pot"); err != nil {
		return nil, err
	}
	if out.Duration, err = d.int("dur"); err != nil {
		return nil, err
	}
	if out.Duration == infiniteDuration {
		out.Duration = -1
	}
	amp, err := d.int("amp")
	if err != nil {
		return nil, err
	}
	out.Amplifier = amp + 1
	return out, nil
}

func decodeParameter(d object, slot Slot) (Item, error) {
	out := Parameter{Slot: slot}
	var err error
	if out.Name, err = d.str("name"); err != nil {
		return nil, err
	}
	typ, err := d.str("type")
	if err != nil {
		return nil, err
	}
	if !DataType(typ).Valid() {
		return nil, unexpected("item", d.path("type"))
	}
	out.Type = DataType(typ)
	if out.Plural, err = d.bool("plural"); err != nil {
		return nil, err
	}
	if _, err = d.bool("optional"); err != nil {
		return nil, err
	}
	if d.has("default_value") {
		def, err := d.obj("default_value")
		if err != nil {
			return nil, err
		}
		if out.Default, err = decodeBody(def, Slot{}); err != nil {
			return nil, err
		}
	}
	if out.Description, err = d.optStr("description"); err != nil {
		return nil, err
	}
	if out.Note, err = d.optStr("note"); err != nil {
		return nil, err
	}
	return out, nil
}

func withSlot(item Item, s Slot) Item {
	switch v := item.(type) {
	case String:
		v.Slot = s
		return v
	case Text:
		v.Slot = s
		return v
	case Number:
		v.Slot = s
		return v
	case Location:
		v.Slot = s
		return v
	case Vector:
		v.Slot = s
		return v
	case Sound:
		v.Slot = s
		return v
	case Particle:
		v.Slot = s
		return v
	case Potion:
		v.Slot = s
		return v
	case Variable:
		v.Slot = s
		return v
	case GameValue:
		v.Slot = s
		return v
	case Parameter:
		v.Slot = s
		return v
	case BlockTag:
		v.Slot = s
		return v
	}
	return item
}
