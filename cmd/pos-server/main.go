// pos-server is the entitlement and account-bootstrap core of the
// point-of-sale application. It serves the entitlement status, trial and
// activation endpoints, and the registration/user-management API consumed by
// the POS UI layer.
package main

import (
	"context"
	"fmt"
	"os"

	"poscore/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		application.Logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
