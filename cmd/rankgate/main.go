// Package main is the entry point for rankgate.
package main

func main() {
	Execute()
}
