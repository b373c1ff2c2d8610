package main

import "github.com/saferent-network/saferent/internal/cli"

func main() {
	cli.Execute()
}
