// Command hotelctl is the operator CLI for the reservation API: seed a
// catalog, search availability, book and list stays.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
