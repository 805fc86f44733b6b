package main

import "github.com/frahmantamala/construction-dashboard/cmd"

func main() {
	cmd.Execute()
}
