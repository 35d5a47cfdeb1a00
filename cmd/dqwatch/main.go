package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alexanderjulianmartinez/dq-watch/internal/cmd"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := cmd.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "dqwatch error: %v\n", err)
		return 1
	}

	err := cmd.NewRootCommand(cmd.DefaultDeps()).Execute()
	if err == nil {
		return 0
	}

	var exitErr *cmd.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(os.Stderr, "dqwatch error: %v\n", err)
	return 1
}
