package main

import "github.com/ichaly/ideabase/cmd"

func main() {
	cmd.Execute()
}
