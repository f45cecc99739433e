package main

import "github.com/bniss/aposynthese/cmd"

func main() {
	cmd.Execute()
}
