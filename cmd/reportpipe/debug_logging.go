package main

import (
	"fmt"
	"os"
)

func debugLog(format string, a ...any) {
	if Debug {
		msg := fmt.Sprintf(format, a...)
		fmt.Fprintf(os.Stderr, "[reportpipe] %s", msg)
	}
}
