// Command admintoken prints a bearer token for the admin panel signed with
// the configured JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"

	"compucobano/internal/config"
	"compucobano/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	subject := flag.String("subject", "", "who the token is issued to")
	ttl := flag.Duration("ttl", service.AdminTokenExpiration, "token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "admintoken: -subject is required")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()

	token, err := service.NewTokenService(cfg.JWT.Secret).IssueToken(*subject, service.RoleAdmin, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "admintoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
