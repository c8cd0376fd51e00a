package main

import "github.com/randoscope/randoscope/internal/cmd"

func main() {
	cmd.Execute()
}
