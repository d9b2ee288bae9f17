package main

import (
	"github.com/code-payments/custody-server/internal/cli"
)

func main() {
	cli.Execute()
}
