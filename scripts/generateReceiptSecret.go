package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/dryack/dndice/core/receipt"
)

// Prints a 32-byte (256-bit) hex secret for DNDICE_RECEIPT_SECRET.
func main() {
	secret, err := receipt.GenerateSecret(32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating receipt secret: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Receipt Secret: %s\n", hex.EncodeToString(secret))
}
