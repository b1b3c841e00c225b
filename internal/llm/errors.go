package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrFatalAPI marks provider errors that retrying cannot fix: bad
// credentials, exhausted quota or billing problems.
var ErrFatalAPI = errors.New("fatal api error")

var fatalPatterns = []string{
	"credit balance",
	"quota",
	"billing",
	"invalid api key",
	"api key not valid",
	"authentication",
	"unauthorized",
	"accessdenied",
	"access denied",
}

// fatalStatus matches 401 and 403 only where they are reported as an HTTP
// status, e.g. "HTTP 401", "status code: 403" or "StatusCode: 401".
var fatalStatus = regexp.MustCompile(`(?:http(?:/[\d.]+)?|status(?:\s*code)?)\s*[:=]?\s*40[13]\b`)

func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if fatalStatus.MatchString(msg) {
		return true
	}
	for _, p := range fatalPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// wrapFatalError tags fatal provider errors with ErrFatalAPI and returns
// everything else unchanged.
func wrapFatalError(err error) error {
	if !isFatalAPIError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatalAPI, err)
}
