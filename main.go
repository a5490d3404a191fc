package main

import "github.com/tsiemens/psxtax/cmd"

func main() {
	cmd.Execute()
}
