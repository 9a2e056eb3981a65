package itemnbt

import (
	"bytes"
	"encoding/json"

	"dfcode.dev/internal/template"
)

const templateDataKey = "hypercube:codetemplatedata"

type displayName struct {
	Italic bool   `json:"italic"`
	Text   string `json:"text"`
}

// templateItem is an ender chest as the game stores a code template in an
// inventory.
type templateItem struct {
	Count int8     `nbt:"Count"`
	ID    string   `nbt:"id"`
	Tag   itemTags `nbt:"tag"`
}

type itemTags struct {
	Display            itemDisplay       `nbt:"display"`
	PublicBukkitValues map[string]string `nbt:"PublicBukkitValues"`
}

type itemDisplay struct {
	Name string `nbt:"Name"`
}

type templateData struct {
	Version int    `json:"version"`
	Author  string `json:"author"`
	Name    string `json:"name"`
	Code    string `json:"code"`
}

// TemplateItem returns the SNBT of an ender chest item that carries t, as
// the game stores code templates in inventories.
func TemplateItem(t template.Template, author string) (string, error) {
	code, err := t.Compress()
	if err != nil {
		return "", err
	}
	name := DisplayName(t)
	nameJSON, err := marshalText(displayName{Text: name})
	if err != nil {
		return "", err
	}
	dataJSON, err := marshalText(templateData{Version: 1, Author: author, Name: name, Code: code})
	if err != nil {
		return "", err
	}
	return Marshal(templateItem{
		Count: 1,
		ID:    "ender_chest",
		Tag: itemTags{
			Display:            itemDisplay{Name: nameJSON},
			PublicBukkitValues: map[string]string{templateDataKey: dataJSON},
		},
	})
}

// marshalText encodes v without HTML escaping so formatting tags survive.
func marshalText(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// DisplayName is the item name shown for t: its own name if set, otherwise
// one derived from the first block.
func DisplayName(t template.Template) string {
	if t.Name != "" {
		return t.Name
	}
	if len(t.Blocks) == 0 {
		return "§bEmpty Template"
	}
	head, ok := t.Blocks[0].(*template.Action)
	if !ok {
		return "§bCode Template"
	}

	prefix := "§bCode Template §3"
	action := "§b" + head.Name
	switch head.Category {
	case template.CategoryPlayerEvent:
		prefix = "§e§lPlayer Event §6"
		action = "§e" + head.Name
	case template.CategoryEntityEvent:
		prefix = "§e§lEntity Event §6"
		action = "§e" + head.Name
	case template.CategoryFunction:
		name, _ := head.DataName()
		prefix = "§b§lFunction §5"
		action = "§b" + name
	case template.CategoryProcess:
		name, _ := head.DataName()
		prefix = "§b§lProcess §5"
		action = "§b" + name
	}
	return prefix + "» " + action
}
