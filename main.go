package main

import "pixshare-backend/cmd"

func main() {
	cmd.Run()
}
