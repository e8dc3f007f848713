package main

import (
	"github.com/dkaplan88/hireflow/cmd"
)

func main() {
	cmd.Execute()
}
