package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/wapmhq/wapm/internal/app"
	"github.com/wapmhq/wapm/internal/errs"
)

const ansiRed = "\x1b[31m"
const ansiReset = "\x1b[0m"

func main() {
	err := app.Execute()
	if err == nil {
		return
	}

	printError(err)
	os.Exit(errs.KindOf(err).ExitCode())
}

func printError(err error) {
	msg := fmt.Sprintf("Error: %v", err)
	if os.Getenv("WAPM_DISABLE_COLOR") != "" || !isatty.IsTerminal(os.Stderr.Fd()) {
		fmt.Fprintln(os.Stderr, msg)
		return
	}
	out := colorable.NewColorableStderr()
	fmt.Fprintln(out, ansiRed+msg+ansiReset)
}
