package template

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func roundTripItem(t *testing.T, in Item) Item {
	t.Helper()
	raw, err := EncodeItem(in, 3)
	if err != nil {
		t.Fatalf("EncodeItem(%T): %v", in, err)
	}
	out, err := DecodeItem(raw)
	if err != nil {
		t.Fatalf("DecodeItem(%s): %v", raw, err)
	}
	return out
}

func TestItem_RoundTrip(t *testing.T) {
	items := []Item{
		String{Value: "hello", Slot: SlotAt(3)},
		Text{Value: "<red>hi</red>", Slot: SlotAt(3)},
		Number{Value: "12.5", Slot: SlotAt(3)},
		Number{Value: "%var(count)", Slot: SlotAt(3)},
		Location{X: 1, Y: 64, Z: -3.5, Pitch: 10, Yaw: 90, Slot: SlotAt(3)},
		Vector{X: 0, Y: 1, Z: 0, Slot: SlotAt(3)},
		Sound{Name: "Pling", Pitch: 1.5, Volume: 2, Slot: SlotAt(3)},
		Sound{Name: "custom.boom", Pitch: 1, Volume: 0.5, Custom: true, Slot: SlotAt(3)},
		Potion{Effect: "Speed", Duration: -1, Amplifier: 1, Slot: SlotAt(3)},
		Potion{Effect: "Haste", Duration: 200, Amplifier: 3, Slot: SlotAt(3)},
		Variable{Name: "index", Scope: ScopeLine, Slot: SlotAt(3)},
		GameValue{Type: "Location", Target: SelectDefault, Slot: SlotAt(3)},
		BlockTag{Tag: "Show Icon", Option: "False", Slot: SlotAt(3)},
		Parameter{Name: "target", Type: TypeString, Slot: SlotAt(3)},
		Parameter{
			Name:        "amount",
			Type:        TypeNumber,
			Plural:      true,
			Default:     Num(5),
			Description: "how many",
			Note:        "defaults to five",
			Slot:        SlotAt(3),
		},
		Particle{
			Name:   "Dust",
			Spread: [2]float64{0.5, 1},
			Amount: 4,
			Data:   ParticleData{Color: 0x00FF00, Size: 2, Motion: [3]float64{0, 1, 0}, Material: "stone", Roll: 3},
			Slot:   SlotAt(3),
		},
	}
	for _, in := range items {
		out := roundTripItem(t, in)
		if !reflect.DeepEqual(in, out) {
			t.Fatalf("round trip mismatch:\n in=%#v\nout=%#v", in, out)
		}
	}
}

func TestItem_DefaultSlotIsPosition(t *testing.T) {
	raw, err := EncodeItem(Str("x"), 7)
	if err != nil {
		t.Fatalf("EncodeItem: %v", err)
	}
	if got, want := string(raw), `{"item":{"id":"txt","data":{"name":"x"}},"slot":7}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
	out, err := DecodeItem(raw)
	if err != nil {
		t.Fatalf("DecodeItem: %v", err)
	}
	if idx, ok := out.(String).Slot.Index(); !ok || idx != 7 {
		t.Fatalf("slot = %d,%v want 7,true", idx, ok)
	}
}

func TestPotion_WireValues(t *testing.T) {
	raw, err := EncodeItem(NewPotion("Saturation"), 0)
	if err != nil {
		t.Fatalf("EncodeItem: %v", err)
	}
	if !strings.Contains(string(raw), `"dur":1000000`) || !strings.Contains(string(raw), `"amp":0`) {
		t.Fatalf("unexpected potion wire: %s", raw)
	}

	in := `{"item":{"id":"pot","data":{"pot":"Speed","dur":1000000,"amp":3}},"slot":0}`
	item, err := DecodeItem(json.RawMessage(in))
	if err != nil {
		t.Fatalf("DecodeItem: %v", err)
	}
	p := item.(Potion)
	if p.Duration != -1 || p.Amplifier != 4 || p.Effect != "Speed" {
		t.Fatalf("got %+v", p)
	}
}

func TestParticle_MaterialCase(t *testing.T) {
	in := Particle{Name: "Block", Amount: 1, Data: DefaultParticleData()}
	in.Data.Material = "Oak_Planks"
	raw, err := EncodeItem(in, 0)
	if err != nil {
		t.Fatalf("EncodeItem: %v", err)
	}
	if !strings.Contains(string(raw), `"material":"OAK_PLANKS"`) {
		t.Fatalf("material not upper-cased: %s", raw)
	}
	out, err := DecodeItem(raw)
	if err != nil {
		t.Fatalf("DecodeItem: %v", err)
	}
	got := out.(Particle).Data.Material
	if got != "oak_planks" || !strings.EqualFold(got, in.Data.Material) {
		t.Fatalf("material = %q", got)
	}
}

func TestSound_CustomUsesKey(t *testing.T) {
	s := NewSound("my.pack.sound")
	s.Custom = true
	raw, err := EncodeItem(s, 0)
	if err != nil {
		t.Fatalf("EncodeItem: %v", err)
	}
	if !strings.Contains(string(raw), `"key":"my.pack.sound"`) || strings.Contains(string(raw), `"sound"`) {
		t.Fatalf("custom sound wire: %s", raw)
	}
	raw, err = EncodeItem(NewSound("Pling"), 0)
	if err != nil {
		t.Fatalf("EncodeItem: %v", err)
	}
	if !strings.Contains(string(raw), `"sound":"Pling"`) || strings.Contains(string(raw), `"key"`) {
		t.Fatalf("vanilla sound wire: %s", raw)
	}
}

func TestParameter_OptionalFlag(t *testing.T) {
	raw, err := EncodeItem(Parameter{Name: "p", Type: TypeAny}, 0)
	if err != nil {
		t.Fatalf("EncodeItem: %v", err)
	}
	if !strings.Contains(string(raw), `"optional":true`) || strings.Contains(string(raw), "default_value") {
		t.Fatalf("no-default parameter wire: %s", raw)
	}
	raw, err = EncodeItem(Parameter{Name: "p", Type: TypeString, Default: String{Value: "d", Slot: SlotAt(9)}}, 0)
	if err != nil {
		t.Fatalf("EncodeItem: %v", err)
	}
	if !strings.Contains(string(raw), `"optional":false`) ||
		!strings.Contains(string(raw), `"default_value":{"id":"txt","data":{"name":"d"}}`) {
		t.Fatalf("default parameter wire: %s", raw)
	}
}

func TestNumber_AcceptsJSONNumber(t *testing.T) {
	item, err := DecodeItem(json.RawMessage(`{"item":{"id":"num","data":{"name":10}},"slot":1}`))
	if err != nil {
		t.Fatalf("DecodeItem: %v", err)
	}
	if v := item.(Number).Value; v != "10" {
		t.Fatalf("value = %q", v)
	}
}

func TestDecodeItem_Errors(t *testing.T) {
	cases := []struct {
		in     string
		key    string
		reason error
	}{
		{`{"item":{"id":"txt","data":{"name":"x"}}}`, "slot", ErrMissingKey},
		{`{"slot":0}`, "item", ErrMissingKey},
		{`{"slot":"0","item":{}}`, "slot", ErrUnexpectedValue},
		{`{"slot":0,"item":{"data":{}}}`, "item.id", ErrMissingKey},
		{`{"slot":0,"item":{"id":"txt"}}`, "item.data", ErrMissingKey},
		{`{"slot":0,"item":{"id":"nope","data":{}}}`, "item.id", ErrUnexpectedValue},
		{`{"slot":0,"item":{"id":"txt","data":{}}}`, "item.data.name", ErrMissingKey},
		{`{"slot":0,"item":{"id":"var","data":{"name":"v","scope":"global"}}}`, "item.data.scope", ErrUnexpectedValue},
		{`{"slot":0,"item":{"id":"g_val","data":{"type":"t","target":"Everyone"}}}`, "item.data.target", ErrUnexpectedValue},
		{`{"slot":0,"item":{"id":"pn_el","data":{"name":"p","type":"widget","plural":false,"optional":true}}}`, "item.data.type", ErrUnexpectedValue},
		{`{"slot":0,"item":{"id":"loc","data":{"isBlock":false,"loc":{"x":1,"y":2,"z":3,"pitch":0}}}}`, "item.data.loc.yaw", ErrMissingKey},
	}
	for _, c := range cases {
		_, err := DecodeItem(json.RawMessage(c.in))
		var se *SchemaError
		if !errors.As(err, &se) {
			t.Fatalf("%s: expected SchemaError, got %v", c.in, err)
		}
		if se.Key != c.key || !errors.Is(err, c.reason) {
			t.Fatalf("%s: got key=%q err=%v, want key=%q reason=%v", c.in, se.Key, err, c.key, c.reason)
		}
	}
}
