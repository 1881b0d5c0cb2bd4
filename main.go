package main

import "github.com/Easy-Infra-Ltd/deepguard-screener/src/cli"

func main() {
	cli.Execute()
}
