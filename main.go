package main

import "github.com/contactdesk/contactdesk/cmd"

func main() {
	cmd.Execute()
}
