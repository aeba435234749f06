package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"expedientes_app_go/services/credential"

	"golang.org/x/term"
)

// Stores the portal account in the system keyring, so PJ_USER and PJ_PASS
// can stay out of the environment
func main() {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Credenciales del portal ===")
	fmt.Println()

	fmt.Print("Usuario (CUIT/CUIL): ")
	user, _ := reader.ReadString('\n')
	user = strings.TrimSpace(user)

	// Get password securely
	fmt.Print("Contraseña: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	password := string(passwordBytes)
	fmt.Println() // New line after password input

	if user == "" || password == "" {
		log.Fatal("User and password are required")
	}

	if err := credential.Set(credential.PortalUserKey, user); err != nil {
		log.Fatalf("Failed to store user: %v", err)
	}
	if err := credential.Set(credential.PortalPassKey, password); err != nil {
		log.Fatalf("Failed to store password: %v", err)
	}

	fmt.Println("✅ Credenciales guardadas en el llavero del sistema")
}
