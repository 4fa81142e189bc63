// Command vidgallery serves the video gallery player API and manages its
// database.
//
// Usage:
//
//	vidgallery serve
//	vidgallery migrate [up|status]
//	vidgallery seed <name>
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vidgallery/backend/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "vidgallery:", err)
		os.Exit(1)
	}
}
