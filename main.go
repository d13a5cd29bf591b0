package main

import (
	"github.com/a13labs/radiocast/cmd"

	_ "github.com/a13labs/radiocast/cmd/server"
)

func main() {
	cmd.Execute()
}
