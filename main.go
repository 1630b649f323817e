package main

import (
	"github.com/Teslos/pycalphad/cmd"
)

func main() {
	cmd.Execute()
}
