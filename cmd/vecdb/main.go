package main

import "github.com/viant/vecdb/internal/cli"

func main() {
	cli.Execute()
}
