package main

import "upcagent/cmd"

func main() {
	cmd.Execute()
}
