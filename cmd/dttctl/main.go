// Command dttctl renders and uploads Driver's Trip Tickets without the API server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
