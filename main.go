package main

import "github.com/nyxsat/pusd/cmd"

func main() {
	cmd.Execute()
}
