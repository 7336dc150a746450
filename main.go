package main

import (
	"log"

	"ticket-storefront/cmd"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
