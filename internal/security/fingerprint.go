// Package security derives the weak device identity that licenses and trials
// are bound to. The fingerprint is not a secret and not a hard guarantee; it
// is a binding signal, compared against a stored value at validation time.
package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Fallback values used when an environment signal is unavailable. The
// generator is total: it always produces a fingerprint, never an error.
const (
	fallbackMAC      = "unknown-mac"
	fallbackHostname = "unknown-host"
	fallbackLocale   = "unknown-locale"
)

const cacheDuration = 1 * time.Hour

// Fingerprinter is the single contract consumers depend on. The concrete
// generator can be swapped or strengthened without touching the codec or the
// entitlement state machine.
type Fingerprinter interface {
	Fingerprint() string
}

// Generator computes the device fingerprint from ambient environment signals
// and caches the result for a while. Safe for concurrent use.
type Generator struct {
	mu          sync.RWMutex
	cached      string
	cacheExpiry time.Time
	logger      *slog.Logger
}

// NewGenerator creates a fingerprint generator.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger.With(slog.String("component", "fingerprint"))}
}

// Fingerprint returns the hex SHA-256 over the joined device signals.
// Deterministic within a session; individual signals fall back to constants
// rather than failing the caller.
func (g *Generator) Fingerprint() string {
	g.mu.RLock()
	if g.cached != "" && time.Now().Before(g.cacheExpiry) {
		cached := g.cached
		g.mu.RUnlock()
		return cached
	}
	g.mu.RUnlock()

	signals := []string{
		g.macAddress(),
		g.hostname(),
		g.timezoneOffset(),
		g.locale(),
		runtime.GOOS,
		runtime.GOARCH,
	}

	sum := sha256.Sum256([]byte(strings.Join(signals, "|")))
	fingerprint := hex.EncodeToString(sum[:])

	g.mu.Lock()
	g.cached = fingerprint
	g.cacheExpiry = time.Now().Add(cacheDuration)
	g.mu.Unlock()

	g.logger.Debug("device fingerprint generated",
		slog.String("fingerprint", fingerprint[:12]),
		slog.String("os", runtime.GOOS),
		slog.String("arch", runtime.GOARCH),
	)
	return fingerprint
}

// Matches compares the current fingerprint against a stored one.
func (g *Generator) Matches(stored string) bool {
	return g.Fingerprint() == stored
}

// macAddress returns the MAC of the first up, non-loopback interface.
func (g *Generator) macAddress() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return fallbackMAC
	}
	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if mac := iface.HardwareAddr.String(); mac != "" && mac != "00:00:00:00:00:00" {
			return mac
		}
	}
	// Any interface with a hardware address beats the constant fallback.
	for _, iface := range interfaces {
		if mac := iface.HardwareAddr.String(); mac != "" && mac != "00:00:00:00:00:00" {
			return mac
		}
	}
	return fallbackMAC
}

func (g *Generator) hostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return fallbackHostname
	}
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return fallbackHostname
	}
	return hostname
}

// timezoneOffset reports the current UTC offset in seconds. Stable enough
// within a session, which is all the weak binding needs.
func (g *Generator) timezoneOffset() string {
	_, offset := time.Now().Zone()
	return fmt.Sprintf("tz%+d", offset)
}

func (g *Generator) locale() string {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return fallbackLocale
}
