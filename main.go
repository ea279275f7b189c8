package main

import "repo-nav/cmd"

func main() {
	cmd.Execute()
}
