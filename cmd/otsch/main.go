package main

import "github.com/OpenTraceLab/OpenTraceSch/cmd/otsch/cmd"

func main() {
	cmd.Execute()
}
