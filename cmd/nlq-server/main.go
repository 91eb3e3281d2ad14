// Package main is the entry point for the NLQ server.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/sentinel-nlq/internal/nlq"
)

func main() {
	nlq.NewApp().Run()
}
