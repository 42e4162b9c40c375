package main

import "github.com/aqasim81/fly/internal/cli"

func main() {
	cli.Execute()
}
