package main

import "github.com/thereayou/lazycord/cmd/server"

func main() {
	server.NewServer().Run()
}
