package main

import (
	"github.com/Kartikesh07/eDNA-Classification/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
