package main

import "github.com/OpenTraceLab/OpenTraceProg/cmd/qiprog/cmd"

func main() {
	cmd.Execute()
}
