package main

import (
	"QRKara/cmd"
)

func main() {
	cmd.Execute()
}
