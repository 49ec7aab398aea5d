package main

import (
	"github.com/axellelanca/pitico/cmd"
	_ "github.com/axellelanca/pitico/cmd/cli"
	_ "github.com/axellelanca/pitico/cmd/server"
)

func main() {
	cmd.Execute()
}
