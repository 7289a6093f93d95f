package main

import "github.com/AntonProkopyev/gh-summary-bot/cmd"

func main() {
	cmd.Execute()
}
