package main

import "shelfex/cmd"

func main() {
	cmd.Execute()
}
