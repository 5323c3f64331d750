package main

import "github.com/aiopt-dev/aiopt/cmd"

func main() {
	cmd.Execute()
}
