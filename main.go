package main

import "bondbot-backend/cmd"

func main() {
	cmd.Run()
}
