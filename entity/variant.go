package entity

// BlockVariant is the closed set of block kinds. Each variant carries only
// the fields its kind actually uses.
type BlockVariant interface {
	blockVariant()
}

type TextBlock struct {
	Title string
	Body  string
}

type ImageBlock struct {
	Title string
	URL   string
}

type MusicBlock struct {
	URL string
}

type VideoBlock struct {
	URL string
}

type HiddenMessageBlock struct {
	ButtonLabel string
	Secret      string
}

// CounterBlock reads the relationship start date from the album.
type CounterBlock struct{}

func (TextBlock) blockVariant()          {}
func (ImageBlock) blockVariant()         {}
func (MusicBlock) blockVariant()         {}
func (VideoBlock) blockVariant()         {}
func (HiddenMessageBlock) blockVariant() {}
func (CounterBlock) blockVariant()       {}

// Variant converts the stored block into its typed form.
// It returns nil for an unknown type tag.
func (b *Block) Variant() BlockVariant {
	switch b.Type {
	case BlockText:
		return TextBlock{Title: b.Title, Body: b.Content}
	case BlockImage:
		return ImageBlock{Title: b.Title, URL: b.Content}
	case BlockMusic:
		return MusicBlock{URL: b.Content}
	case BlockVideo:
		return VideoBlock{URL: b.Content}
	case BlockHiddenMessage:
		return HiddenMessageBlock{ButtonLabel: b.Title, Secret: b.Content}
	case BlockCounter:
		return CounterBlock{}
	}
	return nil
}
