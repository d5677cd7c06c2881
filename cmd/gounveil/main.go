package main

import "github.com/dbsmedya/gounveil/cmd/gounveil/cmd"

func main() {
	cmd.Execute()
}
