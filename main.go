package main

import "loupe/cmd"

func main() {
	cmd.Execute()
}
