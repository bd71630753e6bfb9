// Command token issues an access token for an employee. Login flows live outside
// this service; operators and test clients use this to call the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Println(`Issue an access token signed with JWT_SECRET_KEY

USAGE:
    token -employee <id> [-role employee|admin] [-ttl 1h]`)
	}
	employeeID := fs.String("employee", "", "employee id placed in the token")
	role := fs.String("role", string(employee.RoleEmployee), "employee or admin")
	ttl := fs.String("ttl", "", "token lifetime, defaults to JWT_ACCESS_EXPIRATION_TIME")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *employeeID == "" {
		fs.Usage()
		return fmt.Errorf("-employee is required")
	}
	if !employee.Role(*role).IsValid() {
		return fmt.Errorf("unknown role %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	expiration := cfg.JWT.AccessExpiration
	if *ttl != "" {
		expiration = *ttl
	}

	tokens, err := jwt.NewJWTService(cfg.JWT.Secret, expiration)
	if err != nil {
		return err
	}
	token, expiresAt, err := tokens.GenerateAccessToken(*employeeID, employee.Role(*role))
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Println(token)
	fmt.Fprintln(os.Stderr, "expires at", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
	return nil
}
