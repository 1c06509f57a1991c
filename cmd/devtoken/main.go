// Command devtoken prints an access token signed with JWT_SECRET, for calling a
// locally running dashboard without going through the marketplace login.
//
//	go run ./cmd/devtoken <userID> <role> [email]
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"bazaar-dashboard/config"
	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/utils"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: devtoken <userID> <customer|seller|admin> [email]")
		os.Exit(2)
	}
	userID, role := os.Args[1], strings.ToLower(os.Args[2])
	switch role {
	case domain.RoleCustomer, domain.RoleSeller, domain.RoleAdmin:
	default:
		fmt.Fprintf(os.Stderr, "unknown role %q\n", os.Args[2])
		os.Exit(2)
	}
	email := userID + "@localhost"
	if len(os.Args) > 3 {
		email = os.Args[3]
	}

	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	token, err := utils.GenerateJWT(userID, email, role, 12*time.Hour)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
