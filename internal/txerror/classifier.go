// Package txerror classifies raw ledger and network failure text into a closed
// taxonomy of user-facing errors.
package txerror

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the closed error taxonomy.
type Kind string

// Error kinds.
const (
	KindUserCancelled     Kind = "user-cancelled"
	KindInsufficientFunds Kind = "insufficient-funds"
	KindStaleReference    Kind = "stale-reference"
	KindNetwork           Kind = "network-failure"
	KindTimeout           Kind = "timeout"
	KindDuplicate         Kind = "duplicate-submission"
	KindAccountMissing    Kind = "account-missing"
	KindAccountExists     Kind = "account-exists"
	KindUnauthorized      Kind = "unauthorized"
	KindInactive          Kind = "inactive-or-blacklisted"
	KindPaused            Kind = "platform-paused"
	KindAmountOutOfRange  Kind = "amount-out-of-range"
	KindBatchTooLarge     Kind = "batch-too-large"
	KindSimulationFailed  Kind = "simulation-failed"
	KindProgram           Kind = "program"
	KindUnclassified      Kind = "unclassified"
)

// Severity grades how a classified error should be presented.
type Severity string

// Severity levels.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// maxRawLength caps the fallback description built from unrecognised text.
const maxRawLength = 100

// recoverable is the fixed subset that may succeed if simply tried again.
var recoverable = map[Kind]bool{
	KindStaleReference:   true,
	KindNetwork:          true,
	KindTimeout:          true,
	KindSimulationFailed: true,
}

// Rule maps a case-insensitive pattern to a classification.
type Rule struct {
	Kind        Kind
	Pattern     string
	Title       string
	Description string
	Severity    Severity
}

// Classified is the user-facing interpretation of a failure.
type Classified struct {
	Code        *int
	Kind        Kind
	Title       string
	Description string
	Severity    Severity
	Recoverable bool
}

type compiledRule struct {
	re *regexp.Regexp
	Rule
}

// Classifier evaluates an ordered rule table. It holds no mutable state and is
// safe for concurrent use.
type Classifier struct {
	rules []compiledRule
}

// NewClassifier compiles rules, preserving their order.
func NewClassifier(rules []Rule) (*Classifier, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		expr := r.Pattern
		if !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %d (%s): %w", i, r.Kind, err)
		}
		compiled = append(compiled, compiledRule{Rule: r, re: re})
	}
	return &Classifier{rules: compiled}, nil
}

var (
	anchorErrorRe  = regexp.MustCompile(`Error Code: (\w+)\. Error Number: (\d+)\. Error Message: ([^\n"]+?)\.?(?:["\n]|$)`)
	customErrorRe  = regexp.MustCompile(`(?i)custom program error: 0x([0-9a-f]+)`)
	programErrorRe = regexp.MustCompile(`(?i)(?:Program log: Error: |Error Message: )([^\n"]+)`)
)

// Classify returns the first matching rule's classification, falling back to
// program error extraction and finally to the truncated raw text.
func (c *Classifier) Classify(raw string) Classified {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Classified{
			Kind:        KindUnclassified,
			Title:       "Transaction Failed",
			Description: "Unknown error",
			Severity:    SeverityError,
		}
	}

	for _, r := range c.rules {
		if r.re.MatchString(text) {
			return Classified{
				Kind:        r.Kind,
				Title:       r.Title,
				Description: r.Description,
				Severity:    r.Severity,
				Recoverable: recoverable[r.Kind],
			}
		}
	}

	if m := anchorErrorRe.FindStringSubmatch(text); m != nil {
		code, _ := strconv.Atoi(m[2])
		return Classified{
			Kind:        KindProgram,
			Title:       "Program Error",
			Description: fmt.Sprintf("%s (%s)", strings.TrimSpace(m[3]), m[1]),
			Severity:    SeverityError,
			Code:        &code,
		}
	}

	if m := customErrorRe.FindStringSubmatch(text); m != nil {
		if code, err := strconv.ParseInt(m[1], 16, 64); err == nil {
			n := int(code)
			return Classified{
				Kind:        KindProgram,
				Title:       "Program Error",
				Description: fmt.Sprintf("The program rejected the transaction with error code %d.", n),
				Severity:    SeverityError,
				Code:        &n,
			}
		}
	}

	if m := programErrorRe.FindStringSubmatch(text); m != nil {
		return Classified{
			Kind:        KindProgram,
			Title:       "Program Error",
			Description: strings.TrimSpace(m[1]),
			Severity:    SeverityError,
		}
	}

	return Classified{
		Kind:        KindUnclassified,
		Title:       "Transaction Failed",
		Description: truncate(text, maxRawLength),
		Severity:    SeverityError,
	}
}

// IsRecoverable reports whether trying again may succeed.
func (c *Classifier) IsRecoverable(raw string) bool {
	return c.Classify(raw).Recoverable
}

// IsDuplicate reports whether raw says the transaction was already processed.
func (c *Classifier) IsDuplicate(raw string) bool {
	return c.Classify(raw).Kind == KindDuplicate
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

var std *Classifier

func init() {
	c, err := NewClassifier(DefaultRules())
	if err != nil {
		panic(err)
	}
	std = c
}

// Classify classifies raw with the default rules.
func Classify(raw string) Classified {
	return std.Classify(raw)
}

// ClassifyError classifies err's text with the default rules. A nil error is
// classified as unknown.
func ClassifyError(err error) Classified {
	if err == nil {
		return std.Classify("")
	}
	return std.Classify(err.Error())
}

// IsRecoverable reports whether raw falls in the retryable subset.
func IsRecoverable(raw string) bool {
	return std.IsRecoverable(raw)
}

// IsDuplicate reports whether raw indicates an already-processed transaction.
func IsDuplicate(raw string) bool {
	return std.IsDuplicate(raw)
}
