// Package payload synthesizes the log messages that drive producer
// units: a weighted severity draw, a per-severity message catalog, and
// bounded random pacing intervals. It carries no concurrency of its own;
// each producer owns one Generator.
package payload

import (
	"fmt"
	"math/rand/v2"
	"time"

	"logpipe-go/internal/logrec"
)

// Message catalogs per severity, modeled on typical application logs.
var (
	infoMessages = []string{
		"application service started successfully on port 8080",
		"user 'joana.silva' logged in successfully",
		"payment batch #54321 completed: 150 transactions processed",
		"new message received from queue 'user-registration', starting processing",
		"scheduled database backup completed successfully",
	}

	warningMessages = []string{
		"calculateLegacyTax() is deprecated, use calculateNewTax() instead",
		"disk partition /dev/sda1 is at 85% capacity",
		"response time of external API 'api.weather.com' exceeded 2000ms",
		"the API key in use expires in 3 days",
		"unauthenticated login attempt for user 'admin' from IP 192.168.10.25",
	}

	errorMessages = []string{
		"database connection failed: connection timeout exceeded",
		"null reference encountered at line 42 of user_processor.py",
		"permission denied while accessing directory /var/log/app",
		"failed to parse configuration file 'settings.xml': malformed XML",
		"out of memory while completing image rendering operation",
	}
)

// Generator produces random severities, messages and pacing intervals
// for one producer unit. Not safe for concurrent use.
type Generator struct {
	rng         *rand.Rand
	maxInterval time.Duration
}

// NewGenerator creates a generator with its own PCG source.
// maxInterval bounds the pacing sleep between productions.
func NewGenerator(maxInterval time.Duration) *Generator {
	return NewSeededGenerator(maxInterval, rand.Uint64(), rand.Uint64())
}

// NewSeededGenerator creates a deterministic generator for tests.
func NewSeededGenerator(maxInterval time.Duration, seed1, seed2 uint64) *Generator {
	return &Generator{
		rng:         rand.New(rand.NewPCG(seed1, seed2)),
		maxInterval: maxInterval,
	}
}

// Severity draws a severity with realistic weights:
// ~70% INFO, ~25% WARNING, ~5% ERROR.
func (g *Generator) Severity() logrec.Severity {
	return severityFromDraw(g.rng.IntN(100) + 1)
}

// severityFromDraw maps a uniform draw in [1,100] onto a severity.
func severityFromDraw(draw int) logrec.Severity {
	switch {
	case draw <= 70:
		return logrec.SeverityInfo
	case draw <= 95:
		return logrec.SeverityWarning
	default:
		return logrec.SeverityError
	}
}

// Message picks a random message appropriate for the severity.
func (g *Generator) Message(sev logrec.Severity) string {
	catalog := catalogFor(sev)
	if len(catalog) == 0 {
		return fmt.Sprintf("synthetic test message (%s)", sev)
	}
	return catalog[g.rng.IntN(len(catalog))]
}

func catalogFor(sev logrec.Severity) []string {
	switch sev {
	case logrec.SeverityInfo:
		return infoMessages
	case logrec.SeverityWarning:
		return warningMessages
	case logrec.SeverityError:
		return errorMessages
	}
	return nil
}

// Interval returns the pacing sleep before the next production,
// uniform in [0, maxInterval].
func (g *Generator) Interval() time.Duration {
	if g.maxInterval <= 0 {
		return 0
	}
	return time.Duration(g.rng.Int64N(int64(g.maxInterval) + 1))
}
