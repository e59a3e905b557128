package main

import (
	"os"

	"github.com/yuuki0xff/bbtrace/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
