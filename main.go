package main

import "mymanga/cmd"

func main() {
	cmd.Execute()
}
