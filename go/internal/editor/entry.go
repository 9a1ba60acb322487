package editor

// FormatHint tells a list renderer how an entry differs from the committed list.
type FormatHint string

const (
	HintNoChange FormatHint = "NO_CHANGE"
	HintEdited   FormatHint = "EDITED"
	HintDeleted  FormatHint = "DELETED"
	HintNew      FormatHint = "NEW"
)

type entryTag int

const (
	tagOriginal entryTag = iota
	tagEdited
	tagDeleted
	tagNew
)

func (t entryTag) hint() FormatHint {
	switch t {
	case tagEdited:
		return HintEdited
	case tagDeleted:
		return HintDeleted
	case tagNew:
		return HintNew
	default:
		return HintNoChange
	}
}

// origin is where a committed item sat when the session started.
type origin[K comparable] struct {
	bucket K
	index  int
}

// entry is one staged item. New entries have no origin.
type entry[I any, K comparable] struct {
	tag    entryTag
	origin origin[K]
	item   I
}

func (e entry[I, K]) hasOrigin() bool {
	return e.tag != tagNew
}

// Details is the staged state of one entry.
type Details[I any, K comparable] struct {
	Bucket K          `json:"bucket"`
	Item   I          `json:"item"`
	Hint   FormatHint `json:"hint"`
}

// Line is one rendered entry of a staged list.
type Line struct {
	Text string     `json:"text"`
	Hint FormatHint `json:"hint"`
}
