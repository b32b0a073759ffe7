package duplex

import (
	"fmt"
	"strings"
)

// Tray describes how the printer stacks finished sheets.
type Tray string

const (
	// TrayFaceUp: the last printed sheet lands on top, so odd pages are emitted
	// in descending order to leave page 1 on top of the stack.
	TrayFaceUp Tray = "face-up"
	// TrayFaceDown: the stack already comes out in reading order.
	TrayFaceDown Tray = "face-down"
)

// ParseTray accepts "face-up"/"face-down" (also "up"/"down"), case-insensitive.
// An empty string yields the default TrayFaceUp.
func ParseTray(s string) (Tray, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "face-up", "faceup", "up":
		return TrayFaceUp, nil
	case "face-down", "facedown", "down":
		return TrayFaceDown, nil
	}
	return "", fmt.Errorf("unknown tray policy %q (want face-up or face-down)", s)
}

// Options controls the transform.
type Options struct {
	Tray Tray
	// RejectEmpty makes a zero-page document fail with ErrEmptyDocument.
	RejectEmpty bool
}

// EvenRotation is the rotation added to every page of the even group.
const EvenRotation = 180

// Transform splits doc into the two print phases. The odd group holds pages at
// odd indices (descending for TrayFaceUp, ascending for TrayFaceDown). The even
// group holds pages at even indices in ascending order, each turned a further
// 180 degrees. doc is not modified.
func Transform(doc Document, opts Options) (odd PageGroup, even PageGroup) {
	n := doc.Len()
	odd = PageGroup{Kind: OddReversed, Pages: make([]Page, 0, (n+1)/2)}
	even = PageGroup{Kind: EvenRotated, Pages: make([]Page, 0, n/2)}

	for i, p := range doc.Pages {
		if (i+1)%2 == 1 {
			odd.Pages = append(odd.Pages, Page{Number: p.Number, Rotation: NormalizeRotation(p.Rotation)})
			continue
		}
		even.Pages = append(even.Pages, Page{Number: p.Number, Rotation: NormalizeRotation(p.Rotation + EvenRotation)})
	}

	if opts.Tray != TrayFaceDown {
		for l, r := 0, len(odd.Pages)-1; l < r; l, r = l+1, r-1 {
			odd.Pages[l], odd.Pages[r] = odd.Pages[r], odd.Pages[l]
		}
	}
	return odd, even
}

// Split is Transform plus the empty-document policy. name identifies the
// input in the returned error.
func Split(doc Document, name string, opts Options) (PageGroup, PageGroup, error) {
	if doc.Len() == 0 && opts.RejectEmpty {
		return PageGroup{}, PageGroup{}, EmptyDocument("split", name)
	}
	odd, even := Transform(doc, opts)
	return odd, even, nil
}
