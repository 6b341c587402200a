// ./main.go
package main

import (
	"github.com/zahraakhalili20/xwp-automation/cmd"
)

func main() {
	cmd.Execute()
}
