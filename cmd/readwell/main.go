package main

import "readwell/cmd/readwell/root"

func main() {
	root.Execute()
}
