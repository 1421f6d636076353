package main

import "lst-tools/cmd"

func main() {
	cmd.Execute()
}
