package main

import (
	"os"

	"github.com/gushphp/gush-bitbucket/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
