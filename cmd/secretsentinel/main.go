package main

import (
	"fmt"
	"os"

	"github.com/oktsec/secretsentinel/cmd/secretsentinel/commands"
	"github.com/oktsec/secretsentinel/internal/errs"
)

func main() {
	err := commands.NewRoot().Execute()
	if err == nil {
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(errs.ExitCode(err))
}
