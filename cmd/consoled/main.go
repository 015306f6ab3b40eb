package main

import "github.com/pallavilagisetti/admin-control-sub001/cmd/consoled/cmd"

func main() {
	cmd.Execute()
}
