package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/leakvault/internal/app"
)

func main() {
	os.Exit(app.Main(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
