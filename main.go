package main

import "github.com/Mohsinsiddi/txdash/cmd"

func main() {
	cmd.Execute()
}
