package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"cms0/internal/session"
	"cms0/internal/utils"
	"cms0/internal/utils/logger"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Operator CLI: hashes passwords for manual user rows, generates secrets and
// derives the CSRF token of a session id.
func main() {
	var log = logger.New("helper")
	log.Info("🔑 Starting helper CLI")

	if err := godotenv.Load(); err != nil {
		log.Warn("⚠️ No .env loaded: %v", err)
	}
	secret := os.Getenv("JWT_SECRET")

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("Enter 'p' to hash a password, 's' to generate a secret, 'c' for a session CSRF token, or 'q' to quit: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		switch choice {
		case "q":
			log.Info("👋 Exiting helper CLI")
			return
		case "s":
			value, err := utils.GenerateRandomString(48)
			if err != nil {
				log.Error("❌ Secret generation failed", err)
				continue
			}
			log.Success("✅ Secret: %s", value)
		case "p", "c":
			fmt.Print("Enter the string to process: ")
			input, _ := reader.ReadString('\n')
			input = strings.TrimSpace(input)

			if choice == "p" {
				hash, err := bcrypt.GenerateFromPassword([]byte(input), bcrypt.DefaultCost)
				if err != nil {
					log.Error("❌ Hashing failed", err)
					continue
				}
				log.Success("✅ Hash: %s", hash)
				continue
			}
			if secret == "" {
				log.Warn("⚠️ JWT_SECRET is not set")
				continue
			}
			log.Success("✅ CSRF token: %s", session.CSRFToken(secret, input))
		default:
			log.Warn("⚠️ Invalid choice. Please enter 'p', 's', 'c', or 'q'.")
		}
	}
}
