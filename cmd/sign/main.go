// Command sign answers Ed25519 auth challenges. Paste the base64 challenge from GET /auth/challenge
// and send the printed signature to POST /auth/verify in the Authorization header.
package main

import (
	"bufio"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	outputStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func loadPrivateKey(filename string) (ed25519.PrivateKey, error) {
	privKeyBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return parsePrivateKey(privKeyBytes)
}

func parsePrivateKey(pemBytes []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	privKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	edPriv, ok := privKey.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("not an Ed25519 private key")
	}
	return edPriv, nil
}

// signChallenge signs a base64 challenge and returns the base64 signature.
func signChallenge(key ed25519.PrivateKey, challengeB64 string) (string, error) {
	challenge, err := base64.StdEncoding.DecodeString(strings.TrimSpace(challengeB64))
	if err != nil {
		return "", fmt.Errorf("invalid base64: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ed25519.Sign(key, challenge)), nil
}

// repl signs challenges read from in, one per line, until EOF or "quit".
func repl(key ed25519.PrivateKey, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Enter challenges one by one. Type 'quit' to exit.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptStyle.Render("Enter challenge (base64): "))
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}

		sig, err := signChallenge(key, line)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("Error: "+err.Error()))
			continue
		}
		fmt.Fprintln(out, outputStyle.Render("Signature: "+sig))
	}
	return scanner.Err()
}

func main() {
	keyPath := flag.String("key", "privkey.pem", "PKCS#8 PEM file holding the Ed25519 private key")
	challenge := flag.String("challenge", "", "Sign this challenge and exit instead of prompting")
	flag.Parse()

	key, err := loadPrivateKey(*keyPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error loading private key: "+err.Error()))
		os.Exit(1)
	}

	if *challenge != "" {
		sig, err := signChallenge(key, *challenge)
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
			os.Exit(1)
		}
		fmt.Println(sig)
		return
	}

	if err := repl(key, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error reading input:", err)
		os.Exit(1)
	}
}
