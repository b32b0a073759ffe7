package duplex

// Page is a single page of a source document. Number is 1-based; Rotation is in
// degrees and always a multiple of 90 in [0,360).
type Page struct {
	Number   int `json:"number"`
	Rotation int `json:"rotation"`
}

// Document is the ordered page sequence of one loaded input.
type Document struct {
	Pages []Page
}

// NewDocument builds a Document of n upright pages numbered 1..n.
func NewDocument(n int) Document {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Number: i + 1}
	}
	return Document{Pages: pages}
}

// Len returns the page count.
func (d Document) Len() int { return len(d.Pages) }

// GroupKind identifies which print phase a group belongs to.
type GroupKind string

const (
	OddReversed GroupKind = "odd_reversed"
	EvenRotated GroupKind = "even_rotated"
)

// PageGroup is an ordered subset of a document's pages.
type PageGroup struct {
	Kind  GroupKind `json:"kind"`
	Pages []Page    `json:"pages"`
}

// Len returns the number of pages in the group.
func (g PageGroup) Len() int { return len(g.Pages) }

// Numbers returns the page numbers in group order.
func (g PageGroup) Numbers() []int {
	out := make([]int, len(g.Pages))
	for i, p := range g.Pages {
		out[i] = p.Number
	}
	return out
}

// NormalizeRotation maps any degree value into [0,360).
func NormalizeRotation(deg int) int {
	r := deg % 360
	if r < 0 {
		r += 360
	}
	return r
}
