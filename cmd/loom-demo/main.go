// Command loom-demo is an interactive tour of the rendering core: a
// flex-laid dashboard with focusable panels, an overlay dialog and a text
// input. Tab cycles focus, Enter opens the dialog, ctrl+c quits.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/loomui/loom"
)

func main() {
	var log zerolog.Logger
	if f, err := os.Create("loom-demo.log"); err == nil {
		defer f.Close()
		log = zerolog.New(f).With().Timestamp().Logger()
	} else {
		log = zerolog.Nop()
	}

	app, err := loom.NewApp(loom.WithLogger(log))
	if err != nil {
		fmt.Fprintln(os.Stderr, "loom-demo:", err)
		os.Exit(1)
	}

	root := app.Tree.Root()
	root.Style.Direction = loom.FlexColumn

	header := app.NewBox(nil)
	header.Style.Height = loom.Cells(3)
	header.Style.Border = true
	header.Style.BorderKind = loom.BorderDouble
	title := app.NewText(header, "loom demo  (tab: focus, enter: dialog, ctrl+c: quit)")
	title.Style.Attr = loom.AttrBold

	body := app.NewBox(nil)
	body.Style.Direction = loom.FlexRow
	body.Style.Gap = 1
	body.Style.Height = loom.Percent(70)

	var dialog *loom.Node
	for i := 0; i < 3; i++ {
		panel := app.NewBox(body)
		panel.Style.Border = true
		panel.Style.Width = loom.Percent(33)
		panel.Focusable = true
		app.NewText(panel, fmt.Sprintf("panel %d", i+1))

		panel.OnKey = func(ev loom.KeyEvent) error {
			if ev.Key != loom.KeyEnter {
				return nil
			}
			app.Update(func() error {
				if dialog != nil {
					return nil
				}
				dialog = app.NewBox(nil)
				dialog.Overlay = true
				dialog.Style.Position = loom.PositionFixed
				dialog.Style.Offsets = loom.Offsets{Left: loom.Offset(10), Top: loom.Offset(5)}
				dialog.Style.Width = loom.Cells(40)
				dialog.Style.Height = loom.Cells(7)
				dialog.Style.Border = true
				dialog.Style.BorderKind = loom.BorderThick
				dialog.Style.BG = loom.PaletteColor(236)
				dialog.Style.ZIndex = 10
				msg := app.NewText(dialog, "dialog - press escape to close")
				msg.Focusable = true
				msg.OnKey = func(ev loom.KeyEvent) error {
					if ev.Key == loom.KeyEscape {
						app.Update(func() error {
							err := app.Tree.Remove(dialog)
							dialog = nil
							return err
						})
					}
					return nil
				}
				return nil
			})
			return nil
		}
	}

	footer := app.NewBox(nil)
	footer.Style.Direction = loom.FlexRow
	footer.Style.Gap = 2
	app.NewText(footer, "name:")
	field := app.NewInput(footer)
	field.Style.Width = loom.Cells(24)
	field.OnKey = func(ev loom.KeyEvent) error {
		app.Update(func() error {
			switch ev.Key {
			case loom.KeyRune:
				field.Text += string(ev.Rune)
			case loom.KeyBackspace:
				if len(field.Text) > 0 {
					field.Text = field.Text[:len(field.Text)-1]
				}
			}
			return nil
		})
		return nil
	}

	go func() {
		for err := range app.Errors() {
			log.Error().Err(err).Msg("runtime")
		}
	}()

	if err := app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "loom-demo:", err)
		os.Exit(1)
	}
}
