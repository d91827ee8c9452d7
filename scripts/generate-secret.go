// Package main is a development utility for generating a JWT signing secret.
// It prints a 32-byte hex secret alongside a ready-to-export environment line
// so developers can seed CHB_AUTH_JWT_SECRET for a local instance without
// reaching for openssl. Generate a fresh secret per environment — reusing one
// across deployments means a leak in any of them invalidates every session
// everywhere.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
)

func main() {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		log.Fatal(err)
	}

	encoded := hex.EncodeToString(secret)

	fmt.Println("==========================================================")
	fmt.Println("JWT Signing Secret Generated")
	fmt.Println("==========================================================")
	fmt.Printf("\nexport CHB_AUTH_JWT_SECRET=%s\n\n", encoded)
	fmt.Println("==========================================================")
}
