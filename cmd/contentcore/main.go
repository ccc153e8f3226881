// Package main is the entry point for the contentcore command.
package main

func main() {
	Execute()
}
