package main

import (
	"fmt"
	"os"

	"github.com/jrsteele09/go-auth-client/internal/cli"
	"github.com/jrsteele09/go-auth-client/internal/config"
)

func main() {
	if err := cli.NewRootCmd(config.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
