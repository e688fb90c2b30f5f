package main

import "tilesheet-manager/cmd"

func main() {
	cmd.Execute()
}
