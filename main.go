package main

import "github.com/spendline/spendline/cmd"

func main() {
	cmd.Execute()
}
