package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// AdminStore is the operator-facing credential file gating the admin key-
// management API (SPEC_FULL.md's additive admin surface). Adapted
// directly from termbrowser/config.Config and its Load/Save/
// RunFirstSetup, generalized from "gate the web terminal UI" to "gate
// the admin API that manages the bearer-key set."
type AdminStore struct {
	PasswordHash string `yaml:"password_hash"`
	TOTPSecret   string `yaml:"totp_secret"`
	JWTSecret    string `yaml:"jwt_secret"`
}

// DefaultAdminStorePath mirrors termbrowser's DefaultPath convention: a
// file alongside the running executable.
func DefaultAdminStorePath() string {
	exe, err := os.Executable()
	if err != nil {
		return "admin.yaml"
	}
	return filepath.Join(filepath.Dir(exe), "admin.yaml")
}

// LoadAdminStore reads and parses the YAML admin store at path.
func LoadAdminStore(path string) (*AdminStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s AdminStore
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing admin store: %w", err)
	}
	return &s, nil
}

// SaveAdminStore writes s to path atomically (write-tmp, rename).
func SaveAdminStore(s *AdminStore, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// RunAdminBootstrap interactively prompts for an operator password,
// generates a TOTP secret and a JWT signing secret, and persists the
// result. Adapted verbatim from termbrowser/config.RunFirstSetup.
func RunAdminBootstrap(path string) (*AdminStore, error) {
	fmt.Println("=== shell-tunnel admin bootstrap ===")

	fmt.Print("Enter admin password: ")
	pw1, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	fmt.Print("Confirm admin password: ")
	pw2, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	if string(pw1) != string(pw2) {
		return nil, fmt.Errorf("passwords do not match")
	}
	if len(pw1) == 0 {
		return nil, fmt.Errorf("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword(pw1, 12)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "shell-tunnel",
		AccountName: "admin",
	})
	if err != nil {
		return nil, fmt.Errorf("generating TOTP: %w", err)
	}

	jwtBuf := make([]byte, 32)
	if _, err := rand.Read(jwtBuf); err != nil {
		return nil, fmt.Errorf("generating JWT secret: %w", err)
	}

	store := &AdminStore{
		PasswordHash: string(hash),
		TOTPSecret:   key.Secret(),
		JWTSecret:    hex.EncodeToString(jwtBuf),
	}

	if err := SaveAdminStore(store, path); err != nil {
		return nil, fmt.Errorf("saving admin store: %w", err)
	}

	fmt.Printf("\nTOTP Secret: %s\n", key.Secret())
	fmt.Printf("TOTP URI:    %s\n", key.URL())
	fmt.Println("\nScan the URI with your authenticator app (e.g. Google Authenticator, Authy).")
	fmt.Printf("Admin store saved to: %s\n\n", path)

	return store, nil
}
