package main

import "github.com/aulins/invoice-api/cmd"

func main() {
	cmd.Execute()
}
