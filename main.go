package main

import "github.com/joomlactl/joomlactl/cmd"

func main() {
	cmd.Execute()
}
