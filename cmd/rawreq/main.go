package main

import "github.com/assetnote/rawreq/cmd/rawreq/cmd"

func main() {
	cmd.Execute()
}
