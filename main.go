package main

import "costume-vote-backend/cmd"

func main() {
	cmd.Run()
}
