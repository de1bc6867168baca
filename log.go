package deploy

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

func logstage(w io.Writer, text string) {
	fmt.Fprintln(
		w,
		color.BlueString(" •"),
		color.New(color.Bold).Sprint(text),
	)
}

func logdetail(w io.Writer, text string) {
	fmt.Fprintln(
		w,
		color.New(color.FgHiBlack).Sprint("   └"),
		color.New(color.FgHiBlack).Sprint(text),
	)
}

func logwarn(w io.Writer, text string) {
	fmt.Fprintln(
		w,
		color.YellowString("   !"),
		color.YellowString(text),
	)
}
