package main

import "github.com/naka-gawa/wiki-edit-report/cmd"

func main() {
	cmd.Execute()
}
