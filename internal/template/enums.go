package template

// Category is the code block category, stored in the "block" key.
type Category string

const (
	CategoryPlayerEvent  Category = "event"
	CategoryPlayerAction Category = "player_action"
	CategoryIfPlayer     Category = "if_player"
	CategoryStartProcess Category = "start_process"
	CategoryCallFunction Category = "call_func"
	CategoryControl      Category = "control"
	CategorySetVariable  Category = "set_var"
	CategoryEntityEvent  Category = "entity_event"
	CategoryFunction     Category = "func"
	CategoryIfEntity     Category = "if_entity"
	CategoryEntityAction Category = "entity_action"
	CategoryIfVariable   Category = "if_var"
	CategorySelectObject Category = "select_obj"
	CategoryGameAction   Category = "game_action"
	CategoryElse         Category = "else"
	CategoryProcess      Category = "process"
	CategoryRepeat       Category = "repeat"
	CategoryIfGame       Category = "if_game"
)

var categories = map[Category]struct{}{
	CategoryPlayerEvent:  {},
	CategoryPlayerAction: {},
	CategoryIfPlayer:     {},
	CategoryStartProcess: {},
	CategoryCallFunction: {},
	CategoryControl:      {},
	CategorySetVariable:  {},
	CategoryEntityEvent:  {},
	CategoryFunction:     {},
	CategoryIfEntity:     {},
	CategoryEntityAction: {},
	CategoryIfVariable:   {},
	CategorySelectObject: {},
	CategoryGameAction:   {},
	CategoryElse:         {},
	CategoryProcess:      {},
	CategoryRepeat:       {},
	CategoryIfGame:       {},
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// NamedByData reports whether blocks of this category keep their
// function/process name in the "data" attribute instead of "action".
func (c Category) NamedByData() bool {
	switch c {
	case CategoryFunction, CategoryProcess, CategoryCallFunction, CategoryStartProcess:
		return true
	}
	return false
}

// Selection is a target selector for blocks and game values.
type Selection string

const (
	SelectSelection   Selection = "Selection"
	SelectDefault     Selection = "Default"
	SelectKiller      Selection = "Killer"
	SelectDamager     Selection = "Damager"
	SelectVictim      Selection = "Victim"
	SelectShooter     Selection = "Shooter"
	SelectProjectile  Selection = "Projectile"
	SelectLastEntity  Selection = "LastEntity"
	SelectAllPlayers  Selection = "AllPlayers"
	SelectAllEntities Selection = "AllEntities"
	SelectAllMobs     Selection = "AllMobs"
	// SelectAuto leaves targeting to the game; it is never written out.
	SelectAuto Selection = ""
)

var selections = map[Selection]struct{}{
	SelectSelection:   {},
	SelectDefault:     {},
	SelectKiller:      {},
	SelectDamager:     {},
	SelectVictim:      {},
	SelectShooter:     {},
	SelectProjectile:  {},
	SelectLastEntity:  {},
	SelectAllPlayers:  {},
	SelectAllEntities: {},
	SelectAllMobs:     {},
	SelectAuto:        {},
}

func (s Selection) Valid() bool {
	_, ok := selections[s]
	return ok
}

// VariableScope is where a variable lives.
type VariableScope string

const (
	ScopeGame  VariableScope = "unsaved"
	ScopeSaved VariableScope = "saved"
	ScopeLocal VariableScope = "local"
	ScopeLine  VariableScope = "line"
)

func (s VariableScope) Valid() bool {
	switch s {
	case ScopeGame, ScopeSaved, ScopeLocal, ScopeLine:
		return true
	}
	return false
}

// DataType is the declared type of a function parameter.
type DataType string

const (
	TypeString     DataType = "txt"
	TypeText       DataType = "comp"
	TypeNumber     DataType = "num"
	TypeLocation   DataType = "loc"
	TypeVector     DataType = "vec"
	TypeSound      DataType = "snd"
	TypeParticle   DataType = "part"
	TypePotion     DataType = "pot"
	TypeItem       DataType = "item"
	TypeAny        DataType = "any"
	TypeVariable   DataType = "var"
	TypeList       DataType = "list"
	TypeDictionary DataType = "dict"
)

func (t DataType) Valid() bool {
	switch t {
	case TypeString, TypeText, TypeNumber, TypeLocation, TypeVector, TypeSound, TypeParticle,
		TypePotion, TypeItem, TypeAny, TypeVariable, TypeList, TypeDictionary:
		return true
	}
	return false
}
