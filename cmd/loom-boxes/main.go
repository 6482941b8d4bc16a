// Command loom-boxes renders a static layout once to stdout and exits.
// Useful for eyeballing the layout engines and border merging without
// taking over the terminal.
package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/loomui/loom"
)

func main() {
	width, height := 80, 24
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width, height = w, h-1
		}
	}

	tree := loom.NewTree()
	root := tree.Root()
	root.Style.Direction = loom.FlexColumn

	banner := tree.Create(nil, loom.NodeBox)
	banner.Style.Height = loom.Cells(3)
	banner.Style.Border = true
	banner.Style.BorderKind = loom.BorderDouble
	tree.Create(banner, loom.NodeText).Text = "flex row + grid below"

	row := tree.Create(nil, loom.NodeBox)
	row.Style.Direction = loom.FlexRow
	row.Style.Height = loom.Cells(8)
	row.Style.Justify = loom.JustifySpaceBetween
	for _, kind := range []loom.BorderKind{loom.BorderSingle, loom.BorderThick, loom.BorderDashed} {
		b := tree.Create(row, loom.NodeBox)
		b.Style.Width = loom.Percent(30)
		b.Style.Border = true
		b.Style.BorderKind = kind
	}

	grid := tree.Create(nil, loom.NodeBox)
	grid.Style.Layout = loom.LayoutGrid
	grid.Style.Columns = []loom.Track{loom.Fr(1), loom.Fr(2), loom.Fixed(14)}
	grid.Style.Gap = 1
	grid.Style.Height = loom.Cells(9)
	for i := 0; i < 6; i++ {
		cell := tree.Create(grid, loom.NodeBox)
		cell.Style.Border = true
		tree.Create(cell, loom.NodeText).Text = fmt.Sprintf("cell %d", i+1)
	}

	loom.LayoutTree(tree, loom.Rect{W: width, H: height})

	buf := loom.NewBuffer(width, height)
	comp := loom.NewCompositor(loom.NewFocusRegistry())
	comp.Composite(tree, buf)
	fmt.Println(buf.StringTrimmed())
}
