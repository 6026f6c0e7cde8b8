// Command devtoken prints a signed access token for calling the API
// locally, e.g.
//
//	go run ./cmd/devtoken -user 3f1c... -role User
package main

import (
    "flag"
    "fmt"
    "os"
    "time"

    "github.com/iliyamo/scooter-reservation/internal/config"
    "github.com/iliyamo/scooter-reservation/internal/model"
    "github.com/iliyamo/scooter-reservation/internal/utils"
)

func main() {
    user := flag.String("user", "", "user id to put in the sub claim")
    role := flag.String("role", string(model.AccountUser), "User, InstitutionMember or Admin")
    flag.Parse()

    if *user == "" {
        fmt.Fprintln(os.Stderr, "devtoken: -user is required")
        os.Exit(2)
    }
    switch model.AccountType(*role) {
    case model.AccountUser, model.AccountInstitutionMember, model.AccountAdmin:
    default:
        fmt.Fprintf(os.Stderr, "devtoken: unknown role %q\n", *role)
        os.Exit(2)
    }

    cfg, err := config.Load()
    if err != nil {
        fmt.Fprintln(os.Stderr, "devtoken:", err)
        os.Exit(1)
    }
    tok, err := utils.NewAccessToken(cfg.JWTSecret, *user, *role, time.Duration(cfg.AccessTTLMin)*time.Minute)
    if err != nil {
        fmt.Fprintln(os.Stderr, "devtoken:", err)
        os.Exit(1)
    }
    fmt.Println(tok.Token)
    fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
