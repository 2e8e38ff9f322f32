package main

import (
	"milk2meat/internal/cmd"
)

func main() {
	cmd.Execute()
}
