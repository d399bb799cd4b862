package main

import "github.com/DevN0mad/cbremote/internal/cli"

func main() {
	cli.Execute()
}
