// Command keygen prints a fresh base64 key for the document cipher ring.
// Rotation: prepend the new key to ENCRYPTION_KEYS and redeploy.
package main

import (
	"fmt"
	"log"

	"github.com/maintops/go-maint-auth/doccipher"
)

func main() {
	key, err := doccipher.GenerateKey()
	if err != nil {
		log.Fatalf("generating key: %s", err)
	}
	fmt.Println(key)
}
