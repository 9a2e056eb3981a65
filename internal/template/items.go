package template

import "strconv"

// Kind is the wire tag of an item ("item.id").
type Kind string

const (
	KindString    Kind = "txt"
	KindText      Kind = "comp"
	KindNumber    Kind = "num"
	KindLocation  Kind = "loc"
	KindVector    Kind = "vec"
	KindSound     Kind = "snd"
	KindParticle  Kind = "part"
	KindPotion    Kind = "pot"
	KindVariable  Kind = "var"
	KindGameValue Kind = "g_val"
	KindParameter Kind = "pn_el"
	KindBlockTag  Kind = "bl_tag"
)

// Slot is the chest slot an item occupies. The zero value is unassigned:
// the item then takes its position in the argument list (block tags fill
// from the last slot backwards instead).
type Slot struct {
	index int
	set   bool
}

// SlotAt pins an item to slot i.
func SlotAt(i int) Slot { return Slot{index: i, set: true} }

func (s Slot) Index() (int, bool) { return s.index, s.set }

func (s Slot) resolve(def int) int {
	if s.set {
		return s.index
	}
	return def
}

// Item is a value placed in a code block's chest. The concrete types below
// are the only implementations.
type Item interface {
	Kind() Kind
	slot() Slot
}

// String is a plain text value.
type String struct {
	Value string
	Slot  Slot
}

// Text is a styled (MiniMessage) text value.
type Text struct {
	Value string
	Slot  Slot
}

// Number holds the number as text so expressions such as %var(x) survive.
type Number struct {
	Value string
	Slot  Slot
}

type Location struct {
	X, Y, Z    float64
	Pitch, Yaw float64
	Slot       Slot
}

type Vector struct {
	X, Y, Z float64
	Slot    Slot
}

// Sound is a vanilla sound or, with Custom set, a resource pack sound key.
type Sound struct {
	Name   string
	Pitch  float64
	Volume float64
	Custom bool
	Slot   Slot
}

// ParticleData is the optional appearance block of a particle.
type ParticleData struct {
	Color           int
	ColorVariation  float64
	FadeColor       int
	Size            float64
	SizeVariation   float64
	Motion          [3]float64
	MotionVariation float64
	Material        string
	Roll            float64
}

type Particle struct {
	Name   string
	Spread [2]float64 // horizontal, vertical
	Amount int
	Data   ParticleData
	Slot   Slot
}

// Potion duration -1 means infinite.
type Potion struct {
	Effect    string
	Duration  int
	Amplifier int
	Slot      Slot
}

type Variable struct {
	Name  string
	Scope VariableScope
	Slot  Slot
}

type GameValue struct {
	Type   string
	Target Selection
	Slot   Slot
}

// Parameter declares a function parameter. A non-nil Default makes the
// parameter carry a default value; its slot is ignored.
type Parameter struct {
	Name        string
	Type        DataType
	Plural      bool
	Default     Item
	Description string
	Note        string
	Slot        Slot
}

// BlockTag selects an option of a block tag. Its payload also names the
// owning block's action and category, which the block encoder fills in.
type BlockTag struct {
	Tag    string
	Option string
	Slot   Slot
}

func (String) Kind() Kind    { return KindString }
func (Text) Kind() Kind      { return KindText }
func (Number) Kind() Kind    { return KindNumber }
func (Location) Kind() Kind  { return KindLocation }
func (Vector) Kind() Kind    { return KindVector }
func (Sound) Kind() Kind     { return KindSound }
func (Particle) Kind() Kind  { return KindParticle }
func (Potion) Kind() Kind    { return KindPotion }
func (Variable) Kind() Kind  { return KindVariable }
func (GameValue) Kind() Kind { return KindGameValue }
func (Parameter) Kind() Kind { return KindParameter }
func (BlockTag) Kind() Kind  { return KindBlockTag }

func (i String) slot() Slot    { return i.Slot }
func (i Text) slot() Slot      { return i.Slot }
func (i Number) slot() Slot    { return i.Slot }
func (i Location) slot() Slot  { return i.Slot }
func (i Vector) slot() Slot    { return i.Slot }
func (i Sound) slot() Slot     { return i.Slot }
func (i Particle) slot() Slot  { return i.Slot }
func (i Potion) slot() Slot    { return i.Slot }
func (i Variable) slot() Slot  { return i.Slot }
func (i GameValue) slot() Slot { return i.Slot }
func (i Parameter) slot() Slot { return i.Slot }
func (i BlockTag) slot() Slot  { return i.Slot }

// Str is shorthand for a String item.
func Str(s string) String { return String{Value: s} }

// Num is shorthand for a Number item holding a literal.
func Num(v float64) Number {
	return Number{Value: strconv.FormatFloat(v, 'f', -1, 64)}
}

func NewSound(name string) Sound {
	return Sound{Name: name, Pitch: 1, Volume: 2}
}

func NewPotion(effect string) Potion {
	return Potion{Effect: effect, Duration: -1, Amplifier: 1}
}

func NewGameValue(typ string) GameValue {
	return GameValue{Type: typ, Target: SelectDefault}
}

func DefaultParticleData() ParticleData {
	return ParticleData{Color: 0xFF0000, Size: 1, Material: "air"}
}
