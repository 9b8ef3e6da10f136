package main

import "webpify/cmd"

func main() {
	cmd.Execute()
}
