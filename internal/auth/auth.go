// Package auth guards the web UI with optional basic auth, an IP allowlist
// and per-client rate limits.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// User is one account allowed to use the web UI.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	RateLimitRPM int    `json:"rate_limit_rpm,omitempty"` // searches per minute, 0 = unlimited
	Enabled      bool   `json:"enabled"`
}

// UsersConfig is the on-disk users file.
type UsersConfig struct {
	Users       []User   `json:"users"`
	IPAllowlist []string `json:"ip_allowlist"` // CIDR or bare IP, empty = allow all
}

// UserStore holds the enabled users and the IP allowlist.
type UserStore struct {
	mu        sync.RWMutex
	users     map[string]*User
	limiters  map[string]*rate.Limiter
	allowlist []*net.IPNet
}

// NewUserStore loads a store from a users file.
func NewUserStore(path string) (*UserStore, error) {
	store := &UserStore{}
	if err := store.LoadFromFile(path); err != nil {
		return nil, err
	}
	return store, nil
}

// LoadFromFile replaces the store's contents with the users file at path.
func (s *UserStore) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read users file: %w", err)
	}

	var cfg UsersConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse users file: %w", err)
	}
	return s.Load(cfg)
}

// Load replaces the store's contents with cfg.
func (s *UserStore) Load(cfg UsersConfig) error {
	allowlist := make([]*net.IPNet, 0, len(cfg.IPAllowlist))
	for _, entry := range cfg.IPAllowlist {
		cidr := strings.TrimSpace(entry)
		if !strings.Contains(cidr, "/") {
			if strings.Contains(cidr, ":") {
				cidr += "/128"
			} else {
				cidr += "/32"
			}
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return fmt.Errorf("invalid IP allowlist entry '%s': %w", entry, err)
		}
		allowlist = append(allowlist, ipNet)
	}

	users := make(map[string]*User)
	limiters := make(map[string]*rate.Limiter)
	for i := range cfg.Users {
		user := &cfg.Users[i]
		if !user.Enabled {
			continue
		}
		key := strings.ToLower(user.Username)
		users[key] = user
		if user.RateLimitRPM > 0 {
			// Burst of roughly ten seconds' worth, at least one.
			burst := user.RateLimitRPM / 6
			if burst < 1 {
				burst = 1
			}
			limiters[key] = rate.NewLimiter(PerMinute(user.RateLimitRPM), burst)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.limiters = limiters
	s.allowlist = allowlist
	return nil
}

// ValidateCredentials checks username and password against the bcrypt hash.
// Usernames are matched without regard to case.
func (s *UserStore) ValidateCredentials(username, password string) (*User, bool) {
	s.mu.RLock()
	user, exists := s.users[strings.ToLower(username)]
	s.mu.RUnlock()
	if !exists {
		return nil, false
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, false
	}
	return user, true
}

// CheckIPAllowed reports whether addr (an IP or host:port) is allowed. An
// empty allowlist allows everyone.
func (s *UserStore) CheckIPAllowed(addr string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.allowlist) == 0 {
		return true
	}

	ip := net.ParseIP(ClientIP(addr))
	if ip == nil {
		return false
	}
	for _, ipNet := range s.allowlist {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// CheckRateLimit reports whether username may make another request now.
func (s *UserStore) CheckRateLimit(username string) bool {
	s.mu.RLock()
	limiter, limited := s.limiters[strings.ToLower(username)]
	_, exists := s.users[strings.ToLower(username)]
	s.mu.RUnlock()

	if !exists {
		return false
	}
	if !limited {
		return true
	}
	return limiter.Allow()
}

// UserCount returns the number of enabled users.
func (s *UserStore) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// HashPassword generates a bcrypt hash suitable for the users file.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ClientIP strips the port from a RemoteAddr-style address.
func ClientIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// ReadUsersConfig reads a users file. A missing file yields an empty config.
func ReadUsersConfig(path string) (*UsersConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &UsersConfig{Users: []User{}, IPAllowlist: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	var cfg UsersConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}
	return &cfg, nil
}

// WriteUsersConfig writes cfg to path with owner-only permissions.
func WriteUsersConfig(path string, cfg *UsersConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write users file: %w", err)
	}
	return nil
}

// AddUser appends an enabled user with the given bcrypt hash. Usernames are
// unique without regard to case.
func (c *UsersConfig) AddUser(username, passwordHash string, rpm int) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username cannot be empty")
	}
	for _, u := range c.Users {
		if strings.EqualFold(u.Username, username) {
			return fmt.Errorf("user '%s' already exists", username)
		}
	}
	c.Users = append(c.Users, User{
		Username:     username,
		PasswordHash: passwordHash,
		RateLimitRPM: rpm,
		Enabled:      true,
	})
	return nil
}

// SetEnabled enables or disables username.
func (c *UsersConfig) SetEnabled(username string, enabled bool) error {
	for i := range c.Users {
		if strings.EqualFold(c.Users[i].Username, username) {
			c.Users[i].Enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("user '%s' not found", username)
}

// RemoveUser deletes username.
func (c *UsersConfig) RemoveUser(username string) error {
	for i := range c.Users {
		if strings.EqualFold(c.Users[i].Username, username) {
			c.Users = append(c.Users[:i], c.Users[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("user '%s' not found", username)
}
