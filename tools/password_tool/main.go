package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"sysbar/internal/middleware"
)

// configDoc preserves unknown keys in sysbar.config while updating the hash.
type configDoc map[string]json.RawMessage

func main() {
	configPath := flag.String("config", "sysbar.config", "Path to sysbar.config")
	password := flag.String("password", "", "New admin password (leave blank to type securely)")
	clearPwd := flag.Bool("clear", false, "Remove the admin password (disables panel auth)")
	flag.Parse()

	cfgPath, err := filepath.Abs(strings.TrimSpace(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to resolve config path: %v\n", err)
		os.Exit(1)
	}

	doc, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *clearPwd {
		if err := writeHash(cfgPath, doc, ""); err != nil {
			fmt.Fprintf(os.Stderr, "failed to update config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Admin password cleared; panel authentication is disabled.")
		return
	}

	pwd, err := resolvePassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "password error: %v\n", err)
		os.Exit(1)
	}

	auth := middleware.NewAuthService("", true)
	hash, err := auth.HashPassword(pwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	if err := writeHash(cfgPath, doc, hash); err != nil {
		fmt.Fprintf(os.Stderr, "failed to update config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated admin password in %s\n", cfgPath)
}

func loadConfig(path string) (configDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc configDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func writeHash(path string, doc configDoc, hash string) error {
	raw, err := json.Marshal(hash)
	if err != nil {
		return err
	}
	doc["admin_password_hash"] = raw
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func resolvePassword(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed != "" {
		if len(trimmed) < 8 {
			return "", fmt.Errorf("password must be at least 8 characters")
		}
		return trimmed, nil
	}

	first, err := promptPassword("Enter new password: ")
	if err != nil {
		return "", err
	}
	second, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("passwords do not match")
	}
	if len(first) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	return first, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		bytes, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	text, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
