package main

import (
	"github.com/shopadmin-cli/shopadmin/cmd"
)

func main() {
	cmd.Execute()
}
