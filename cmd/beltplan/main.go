package main

import (
	"github.com/factorlab/beltplan-go/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
