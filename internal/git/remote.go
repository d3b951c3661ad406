// Package git reads the origin remote of a local checkout so the organization to
// analyze can be inferred when none is configured.
package git

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Remote is a parsed git remote URL.
type Remote struct {
	Host  string
	Owner string
	Name  string
	URL   string
}

// DetectOwner returns the owner (user or organization) of the origin remote of
// the checkout in dir.
func DetectOwner(dir string) (string, error) {
	remote, err := DetectRemote(dir)
	if err != nil {
		return "", err
	}
	return remote.Owner, nil
}

// DetectRemote reads the .git/config in the given directory and parses the
// origin remote URL.
func DetectRemote(dir string) (Remote, error) {
	configPath := filepath.Join(dir, ".git", "config")
	f, err := os.Open(configPath)
	if err != nil {
		return Remote{}, fmt.Errorf("could not open .git/config: %w", err)
	}
	defer f.Close()

	var inOrigin bool
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == `[remote "origin"]` {
			inOrigin = true
			continue
		}
		if inOrigin && strings.HasPrefix(line, "[") {
			break
		}
		if inOrigin && strings.HasPrefix(line, "url") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				return ParseRemoteURL(strings.TrimSpace(parts[1]))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Remote{}, fmt.Errorf("reading .git/config: %w", err)
	}
	return Remote{}, errors.New("no origin remote found in .git/config")
}

// ParseRemoteURL parses a git remote URL.
// Supports HTTPS (https://github.com/owner/repo.git) and SSH (git@github.com:owner/repo.git).
// The URL field preserves the input unchanged.
func ParseRemoteURL(rawURL string) (Remote, error) {
	normalized := strings.TrimSuffix(rawURL, ".git")

	// SSH format: git@github.com:owner/repo
	if strings.HasPrefix(normalized, "git@") {
		trimmed := strings.TrimPrefix(normalized, "git@")
		parts := strings.SplitN(trimmed, ":", 2)
		if len(parts) != 2 {
			return Remote{}, fmt.Errorf("invalid SSH remote URL: %s", rawURL)
		}
		ownerRepo := strings.SplitN(parts[1], "/", 2)
		if len(ownerRepo) != 2 || ownerRepo[0] == "" {
			return Remote{}, fmt.Errorf("invalid SSH remote URL path: %s", parts[1])
		}
		return Remote{Host: parts[0], Owner: ownerRepo[0], Name: ownerRepo[1], URL: rawURL}, nil
	}

	// HTTPS format: https://github.com/owner/repo
	if strings.HasPrefix(normalized, "https://") || strings.HasPrefix(normalized, "http://") {
		withoutScheme := strings.TrimPrefix(normalized, "https://")
		withoutScheme = strings.TrimPrefix(withoutScheme, "http://")
		parts := strings.SplitN(withoutScheme, "/", 3)
		if len(parts) != 3 || parts[1] == "" {
			return Remote{}, fmt.Errorf("invalid HTTPS remote URL: %s", rawURL)
		}
		host := parts[0]
		if i := strings.LastIndex(host, "@"); i >= 0 {
			host = host[i+1:]
		}
		return Remote{Host: host, Owner: parts[1], Name: parts[2], URL: rawURL}, nil
	}

	return Remote{}, fmt.Errorf("unsupported remote URL format: %s", rawURL)
}
