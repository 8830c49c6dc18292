// Command hashpass prints a STAFF_USERS entry for a staff member.
//
//	hashpass -user till1 -role cashier
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/hongminglow/loyalty-ledger/internal/auth"
	"github.com/hongminglow/loyalty-ledger/internal/models"
)

func main() {
	user := flag.String("user", "", "staff username")
	role := flag.String("role", models.RoleCashier, "staff role (admin or cashier)")
	flag.Parse()

	if strings.TrimSpace(*user) == "" || !models.ValidRole(*role) {
		flag.Usage()
		os.Exit(2)
	}

	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read password: %v\n", err)
		os.Exit(1)
	}
	if len(pw) == 0 {
		fmt.Fprintln(os.Stderr, "password must not be empty")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(string(pw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s:%s:%s\n", strings.TrimSpace(*user), *role, hash)
}
