package main

import "hrkyc/internal/app/server"

func main() {
	server.Run()
}
