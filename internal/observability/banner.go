package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	colorReset    = "\033[0m"
	colorNeonCyan = "\033[96m"
)

const banner = `
    ____  __    ___    _   ___       __________ ______
   / __ \/ /   /   |  / | / / |     / /  _/ ___// ____/
  / /_/ / /   / /| | /  |/ /| | /| / // / \__ \/ __/
 / ____/ /___/ ___ |/ /|  / | |/ |/ // / ___/ / /___
/_/   /_____/_/  |_/_/ |_/  |__/|__/___//____/_____/

          >> plans, one card at a time <<
`

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// PrintBanner writes the centred startup banner. Colour is only used when
// stdout is a terminal.
func PrintBanner(w io.Writer) {
	width := termWidth()
	color := term.IsTerminal(int(os.Stdout.Fd()))

	for _, l := range strings.Split(banner, "\n") {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		if color {
			fmt.Fprintf(w, "%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan+l, colorReset)
		} else {
			fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", padding), l)
		}
	}
}
