package main

import "hastingtx/cmd"

func main() {
	cmd.Execute()
}
