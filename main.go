package main

import (
	"github.com/variantdev/ecsdeploy/cmd"
)

func main() {
	cmd.Execute()
}
