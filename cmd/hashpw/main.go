// Command hashpw prints a bcrypt hash for ADMIN_PASSWORD_HASH.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/abisalde/storefront-auth/pkg/password"

	"golang.org/x/term"
)

func main() {
	cost := flag.Int("cost", 12, "bcrypt cost")
	flag.Parse()

	pw, err := readPassword()
	if err != nil {
		log.Fatalf("❌ Failed to read password: %v", err)
	}
	if len(pw) < password.MinLength || len(pw) > password.MaxLength {
		log.Fatalf("❌ Password must be %d to %d bytes", password.MinLength, password.MaxLength)
	}

	hash, err := password.NewHasher(*cost).Hash(pw)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}
	fmt.Println(hash)
}

// readPassword prompts without echo on a terminal and reads one line from
// stdin otherwise.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Confirm: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
