package main

import (
	"github.com/priyxstudio/botdeck/cmd"
)

func main() {
	cmd.Execute()
}
