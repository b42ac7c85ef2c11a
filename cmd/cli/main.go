// Command africapay drives the payment orchestrator from a terminal using the
// same configuration as the server.
package main

import (
	"context"
	"os"
	"os/signal"

	log "github.com/charmbracelet/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd(loadPayments).ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}
