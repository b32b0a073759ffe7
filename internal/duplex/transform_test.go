package duplex

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformFivePages(t *testing.T) {
	odd, even := Transform(NewDocument(5), Options{})

	assert.Equal(t, OddReversed, odd.Kind)
	assert.Equal(t, EvenRotated, even.Kind)
	assert.Equal(t, []int{5, 3, 1}, odd.Numbers())
	assert.Equal(t, []int{2, 4}, even.Numbers())
	for _, p := range odd.Pages {
		assert.Equal(t, 0, p.Rotation, "odd page %d", p.Number)
	}
	for _, p := range even.Pages {
		assert.Equal(t, 180, p.Rotation, "even page %d", p.Number)
	}
}

func TestTransformCoversEveryPageOnce(t *testing.T) {
	for n := 0; n <= 25; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			odd, even := Transform(NewDocument(n), Options{})
			require.Equal(t, n, odd.Len()+even.Len())

			seen := map[int]int{}
			for _, num := range append(odd.Numbers(), even.Numbers()...) {
				seen[num]++
			}
			require.Len(t, seen, n)
			for num, c := range seen {
				assert.Equal(t, 1, c, "page %d", num)
				assert.True(t, num >= 1 && num <= n)
			}
			for _, num := range odd.Numbers() {
				assert.Equal(t, 1, num%2)
			}
			for _, num := range even.Numbers() {
				assert.Equal(t, 0, num%2)
			}
			assert.True(t, sort.IsSorted(sort.Reverse(sort.IntSlice(odd.Numbers()))))
			assert.True(t, sort.IntsAreSorted(even.Numbers()))
		})
	}
}

func TestTransformEmptyAndSingle(t *testing.T) {
	odd, even := Transform(NewDocument(0), Options{})
	assert.Equal(t, 0, odd.Len())
	assert.Equal(t, 0, even.Len())

	odd, even = Transform(NewDocument(1), Options{})
	assert.Equal(t, []int{1}, odd.Numbers())
	assert.Equal(t, 0, even.Len())
	assert.NotNil(t, even.Pages)
}

func TestTransformComposesRotation(t *testing.T) {
	doc := Document{Pages: []Page{
		{Number: 1, Rotation: 90},
		{Number: 2, Rotation: 90},
		{Number: 3, Rotation: 270},
		{Number: 4, Rotation: 270},
		{Number: 5, Rotation: -90},
		{Number: 6, Rotation: 180},
	}}
	odd, even := Transform(doc, Options{})

	assert.Equal(t, []Page{{5, 270}, {3, 270}, {1, 90}}, odd.Pages)
	assert.Equal(t, []Page{{2, 270}, {4, 90}, {6, 0}}, even.Pages)
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	doc := Document{Pages: []Page{{1, 0}, {2, 90}, {3, 0}, {4, 0}}}
	before := append([]Page(nil), doc.Pages...)

	odd1, even1 := Transform(doc, Options{})
	odd2, even2 := Transform(doc, Options{})

	assert.Equal(t, before, doc.Pages)
	assert.Equal(t, odd1, odd2)
	assert.Equal(t, even1, even2)

	odd1.Pages[0].Rotation = 90
	assert.Equal(t, before, doc.Pages)
}

func TestTransformFaceDownKeepsOddAscending(t *testing.T) {
	odd, even := Transform(NewDocument(6), Options{Tray: TrayFaceDown})
	assert.Equal(t, []int{1, 3, 5}, odd.Numbers())
	assert.Equal(t, []int{2, 4, 6}, even.Numbers())
}

func TestTransformRoundTrip(t *testing.T) {
	doc := Document{Pages: []Page{{1, 0}, {2, 90}, {3, 180}, {4, 0}, {5, 270}, {6, 270}, {7, 0}}}
	odd, even := Transform(doc, Options{})

	var rebuilt []Page
	for i := len(odd.Pages) - 1; i >= 0; i-- {
		rebuilt = append(rebuilt, odd.Pages[i])
	}
	for _, p := range even.Pages {
		rebuilt = append(rebuilt, Page{Number: p.Number, Rotation: NormalizeRotation(p.Rotation - EvenRotation)})
	}
	sort.Slice(rebuilt, func(i, j int) bool { return rebuilt[i].Number < rebuilt[j].Number })
	assert.Equal(t, doc.Pages, rebuilt)
}

func TestSplitRejectEmpty(t *testing.T) {
	_, _, err := Split(NewDocument(0), "blank.pdf", Options{})
	require.NoError(t, err)

	_, _, err = Split(NewDocument(0), "blank.pdf", Options{RejectEmpty: true})
	assert.True(t, errors.Is(err, ErrEmptyDocument))
	assert.False(t, errors.Is(err, ErrInvalidDocument))
	assert.Equal(t, "EmptyDocument: split blank.pdf: document has no pages", err.Error())

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, KindEmptyDocument, de.Kind)

	odd, even, err := Split(NewDocument(2), "two.pdf", Options{RejectEmpty: true})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, odd.Numbers())
	assert.Equal(t, []int{2}, even.Numbers())
}

func TestParseTray(t *testing.T) {
	cases := map[string]Tray{
		"":          TrayFaceUp,
		"face-up":   TrayFaceUp,
		"UP":        TrayFaceUp,
		"face-down": TrayFaceDown,
		" down ":    TrayFaceDown,
	}
	for in, want := range cases {
		got, err := ParseTray(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTray("sideways")
	assert.Error(t, err)
}

func TestNormalizeRotation(t *testing.T) {
	assert.Equal(t, 0, NormalizeRotation(360))
	assert.Equal(t, 270, NormalizeRotation(-90))
	assert.Equal(t, 90, NormalizeRotation(450))
	assert.Equal(t, 0, NormalizeRotation(0))
}
