package main

import "media-player/cmd"

func main() {
	cmd.Execute()
}
