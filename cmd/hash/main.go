// Package main is a utility for generating the bcrypt hash of the
// administrator password. The backend stores only the hash — never the raw
// password — so this tool is used when seeding CHB_AUTH_ADMIN_PASSWORD_HASH
// for a deployment without running the full server.
//
// Usage: hash <password>
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <password>\n", os.Args[0])
		os.Exit(2)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(hash))
}
