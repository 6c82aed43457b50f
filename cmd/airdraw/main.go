package main

import "runtime"

func init() {
	// The tray and preview window must own the main OS thread.
	runtime.LockOSThread()
}

func main() {
	Execute()
}
