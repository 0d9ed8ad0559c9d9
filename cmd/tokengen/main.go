// Command tokengen mints bearer tokens for operators and rider devices.
// Login is handled elsewhere; this is for provisioning and local testing.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"trip_tracker/internal/config"
	"trip_tracker/internal/middleware"
)

func main() {
	subject := flag.String("sub", "", "token subject (operator or rider id)")
	role := flag.String("role", middleware.RoleAdmin, "role: admin or rider")
	ttl := flag.Duration("ttl", 72*time.Hour, "token lifetime")
	flag.Parse()

	middleware.SetSecret(config.Load().JWTSecret)

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "tokengen: -sub is required")
		os.Exit(2)
	}
	if *role != middleware.RoleAdmin && *role != middleware.RoleRider {
		fmt.Fprintf(os.Stderr, "tokengen: unknown role %q\n", *role)
		os.Exit(2)
	}

	tok, err := middleware.GenerateToken(*subject, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tokengen:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
