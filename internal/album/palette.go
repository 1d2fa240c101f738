package album

import "lovealbum/entity"

type Color struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var palette = []Color{
	{Name: "gold", Value: "#b8860b"},
	{Name: "rose", Value: "#c44569"},
	{Name: "wine red", Value: "#722f37"},
	{Name: "deep violet", Value: "#4a0e4e"},
	{Name: "night blue", Value: "#1a1a40"},
	{Name: "luxe black", Value: "#0d0d0d"},
	{Name: "cream", Value: "#f5e6d3"},
	{Name: "light pink", Value: "#f7cac9"},
}

// Palette lists the quick-pick theme colours offered in the editor.
func Palette() []Color {
	result := make([]Color, len(palette))
	copy(result, palette)
	return result
}

type CatalogEntry struct {
	Type  entity.BlockType `json:"type"`
	Icon  string           `json:"icon"`
	Label string           `json:"label"`
}

var catalog = map[entity.BlockType]CatalogEntry{
	entity.BlockText:          {Icon: "type", Label: "Text / letter"},
	entity.BlockImage:         {Icon: "image", Label: "Image"},
	entity.BlockMusic:         {Icon: "music", Label: "Music"},
	entity.BlockVideo:         {Icon: "video", Label: "Video"},
	entity.BlockHiddenMessage: {Icon: "message-circle", Label: "Hidden message"},
	entity.BlockCounter:       {Icon: "timer", Label: "Relationship counter"},
}

// Catalog lists block types in picker order.
func Catalog() []CatalogEntry {
	types := entity.AllBlockTypes()
	result := make([]CatalogEntry, 0, len(types))
	for _, t := range types {
		entry := catalog[t]
		entry.Type = t
		result = append(result, entry)
	}
	return result
}
