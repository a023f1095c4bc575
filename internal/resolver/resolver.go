// Package resolver derives the owning client and broker for a broker export
// file from its path. Two naming conventions are in use, sometimes inside
// the same client directory: the broker as the file's parent folder, or the
// broker embedded in the filename after the file-kind prefix. Both must be
// supported within one ingestion run; treating the folder convention as the
// only one silently skips every filename-convention file.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rahulprajapat123/investment-manager/internal/config"
	"github.com/rahulprajapat123/investment-manager/internal/detector"
	apperrors "github.com/rahulprajapat123/investment-manager/internal/errors"
)

var (
	clientIDPattern = regexp.MustCompile(`^[A-Za-z]\d+$`)
	bareIntPattern  = regexp.MustCompile(`^\d+$`)
	accountPattern  = regexp.MustCompile(`(\d{10,})`)
	digitsOnly      = regexp.MustCompile(`^\d+$`)
)

// Identity is the resolved (client, broker) pair for one file.
type Identity struct {
	ClientID string
	Broker   string
}

// Resolver resolves file paths to client and broker identities.
type Resolver struct {
	logger *slog.Logger
}

// New creates a path resolver.
func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Resolve derives the client ID and broker for the file at path. The client
// comes from the nearest ancestor directory matching the client-ID shape.
// The broker comes from the parent folder when that folder is neither a
// placeholder nor the client directory itself, and from the filename
// otherwise. Failure to resolve a client is an error; failure to resolve a
// broker degrades to an account-derived or unknown label.
func (r *Resolver) Resolve(ctx context.Context, path string) (Identity, error) {
	clientID, clientIdx, ok := r.resolveClient(path)
	if !ok {
		return Identity{}, apperrors.NewResolutionError(
			fmt.Sprintf("could not extract client id from path: %s", path), nil)
	}

	broker := r.resolveBrokerFromFolder(path, clientIdx)
	if broker == "" {
		broker = r.resolveBrokerFromFilename(path)
	}
	if broker == "" {
		broker = config.UnknownBroker
		r.logger.WarnContext(ctx, "broker could not be resolved, using fallback label",
			slog.String("path", path),
			slog.String("broker", broker))
	}

	return Identity{ClientID: clientID, Broker: broker}, nil
}

// resolveClient finds the nearest ancestor directory matching the client-ID
// pattern and returns the normalized ID plus its component index.
func (r *Resolver) resolveClient(path string) (string, int, bool) {
	parts := splitPath(path)

	// Walk from the file upward so the nearest ancestor wins. The last
	// component is the filename itself.
	for i := len(parts) - 2; i >= 0; i-- {
		part := parts[i]
		if clientIDPattern.MatchString(part) {
			return normalizeClientID(part), i, true
		}
		if bareIntPattern.MatchString(part) {
			return normalizeClientID(part), i, true
		}
	}
	return "", -1, false
}

// resolveBrokerFromFolder applies the folder convention: the immediate
// parent directory names the broker unless it is a known placeholder or the
// client directory itself.
func (r *Resolver) resolveBrokerFromFolder(path string, clientIdx int) string {
	parts := splitPath(path)
	parentIdx := len(parts) - 2
	if parentIdx < 0 || parentIdx == clientIdx {
		return ""
	}

	parent := parts[parentIdx]
	if config.PlaceholderDirs[strings.ToLower(parent)] {
		return ""
	}
	if clientIDPattern.MatchString(parent) || bareIntPattern.MatchString(parent) {
		return ""
	}

	return strings.ReplaceAll(parent, "_", " ")
}

// resolveBrokerFromFilename applies the filename convention: strip the
// leading file-kind segments and read the broker from what remains,
// replacing internal delimiters with spaces for display.
func (r *Resolver) resolveBrokerFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	segments := strings.Split(stem, "_")
	if len(segments) < 2 {
		// A single-segment name can still be the broker itself.
		if containsBrokerKeyword(stem) {
			return stem
		}
		return accountFallback(stem)
	}

	// Drop every leading segment that is part of the file-kind prefix.
	start := 0
	for start < len(segments) && isKindSegment(segments[start]) {
		start++
	}
	if start == 0 {
		// No kind prefix; the convention is <first segment>_<broker>.
		start = 1
	}
	if start >= len(segments) {
		return accountFallback(stem)
	}

	rest := segments[start:]
	joined := strings.TrimSpace(strings.Join(rest, " "))
	if joined == "" || digitsOnly.MatchString(strings.Join(rest, "")) {
		return accountFallback(stem)
	}

	return joined
}

// isKindSegment reports whether a filename segment belongs to the file-kind
// prefix rather than the broker name. The kind rules are shared with the
// detector so the keyword inventory is defined once.
func isKindSegment(segment string) bool {
	s := strings.ToLower(segment)
	if s == "" {
		return true
	}
	for _, rule := range detector.KindRules {
		for _, kw := range rule.AllOf {
			if s == kw || s == kw+"s" {
				return true
			}
		}
		for _, kw := range rule.AnyOf {
			if s == strings.Trim(kw, "_") {
				return true
			}
		}
	}
	return false
}

// containsBrokerKeyword reports whether a filename fragment names a known
// broker, using the shared keyword inventory.
func containsBrokerKeyword(s string) bool {
	ls := strings.ToLower(s)
	for _, kw := range detector.BrokerKeywords {
		if strings.Contains(ls, kw) {
			return true
		}
	}
	return false
}

// accountFallback derives a pseudo-broker label from an account number in
// the filename, or "" when none is present.
func accountFallback(stem string) string {
	if m := accountPattern.FindStringSubmatch(stem); m != nil {
		return config.AccountBrokerPrefix + m[1][:6]
	}
	return ""
}

// normalizeClientID canonicalizes a client directory name: an existing
// letter prefix is uppercased, a bare integer is left-padded and prefixed.
func normalizeClientID(part string) string {
	if clientIDPattern.MatchString(part) {
		return strings.ToUpper(part[:1]) + part[1:]
	}
	padded := part
	for len(padded) < config.ClientIDDigits {
		padded = "0" + padded
	}
	return config.ClientIDPrefix + padded
}

// splitPath splits a path into its components, tolerating both separators.
func splitPath(path string) []string {
	cleaned := filepath.ToSlash(filepath.Clean(path))
	parts := strings.Split(cleaned, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			out = append(out, p)
		}
	}
	return out
}
