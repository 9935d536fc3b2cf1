package metronome

import (
	"fmt"
	"io"
)

// Click is a stand-in for the audio collaborator: it "plays" each beat by
// writing a terminal bell plus a short line to w. Accented beats get a
// heavier marker.
type Click struct {
	w           io.Writer
	accentEvery int
}

// NewClick returns a click sink accenting every nth beat; n <= 1 disables
// accents.
func NewClick(w io.Writer, accentEvery int) *Click {
	return &Click{w: w, accentEvery: accentEvery}
}

// Play writes one beat. Must stay cheap; it is called from the dispatch
// loop's beat callback.
func (c *Click) Play(index int) {
	mark := "·"
	if c.accentEvery > 1 && (index-1)%c.accentEvery == 0 {
		mark = "●"
	}
	fmt.Fprintf(c.w, "\a%s %d\n", mark, index)
}
