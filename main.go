package main

import "github.com/certainty3452/fires3/cmd"

func main() {
	cmd.Execute()
}
