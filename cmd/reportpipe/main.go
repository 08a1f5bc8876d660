/*
Copyright © 2025 devopsuser8413 <devopsuser8413@gmail.com>
*/

package main

import "log"

func main() {
	if err := Execute(); err != nil {
		log.Fatal(err)
	}
}
