// Package command renders WeeChat relay text commands: "<id> <verb>
// <args>\r\n" lines sent upstream to the relay.
package command

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVerb is returned by Encode when the requested verb is not in
// the fixed allow-list.
var ErrUnknownVerb = errors.New("command: unknown verb")

// allowedVerbs is the fixed set of relay command verbs this client will
// ever send. An unknown verb is rejected before any byte is produced.
var allowedVerbs = map[string]bool{
	"init":     true,
	"ping":     true,
	"hdata":    true,
	"info":     true,
	"infolist": true,
	"nicklist": true,
	"input":    true,
	"sync":     true,
	"desync":   true,
	"quit":     true,
}

// Encode renders one relay command line. id may be empty, in which case
// the relay will not tag its reply (and the caller should expect to
// correlate by verb/ordering instead). args is the verb's raw argument
// text and is not further validated or escaped; Encode trusts its caller
// the same way the original command-line client trusted direct user input
// for anything past the verb.
func Encode(id, verb string, args ...string) (string, error) {
	if !allowedVerbs[verb] {
		return "", fmt.Errorf("%w: %q", ErrUnknownVerb, verb)
	}
	var b strings.Builder
	if id != "" {
		b.WriteString(id)
		b.WriteByte(' ')
	}
	b.WriteString(verb)
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	b.WriteString("\r\n")
	return b.String(), nil
}
