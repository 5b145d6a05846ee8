package validation

import (
	"fmt"
	"maps"
	"net"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ── Errors ───────────────────────────────────────────────────────────────────

// Errors holds the failure messages per field.
type Errors struct {
	fields map[string][]string
}

func (e *Errors) add(field, msg string) {
	if e.fields == nil {
		e.fields = make(map[string][]string)
	}
	e.fields[field] = append(e.fields[field], msg)
}

// Has reports whether any field failed.
func (e *Errors) Has() bool { return len(e.fields) > 0 }

// First returns the first message for field, or "".
func (e *Errors) First(field string) string {
	if msgs := e.fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// All returns every message for field.
func (e *Errors) All(field string) []string { return slices.Clone(e.fields[field]) }

// Fields returns the failed fields, sorted.
func (e *Errors) Fields() []string { return slices.Sorted(maps.Keys(e.fields)) }

// Error joins every message, fields in sorted order.
func (e *Errors) Error() string {
	var msgs []string
	for _, field := range e.Fields() {
		msgs = append(msgs, e.fields[field]...)
	}
	return strings.Join(msgs, " ")
}

// ── Rules ────────────────────────────────────────────────────────────────────

// Rules is a map of field → pipe-separated rule string.
// e.g. Rules{"IOC_LOG_LEVEL": "required|in:debug,info,warn,error"}
type Rules map[string]string

// check is one named rule. message is formatted with the field (%[1]s) and the
// rule parameter (%[2]s). A failing rule with quiet set ends the field's
// checks without a message.
type check struct {
	pass    func(value, param string) bool
	message string
	quiet   bool
}

var checks = map[string]check{
	"required": {
		pass:    func(v, _ string) bool { return strings.TrimSpace(v) != "" },
		message: "The %[1]s field is required.",
	},
	"nullable": {
		pass:  func(v, _ string) bool { return v != "" },
		quiet: true,
	},
	"integer": {
		pass: func(v, _ string) bool {
			_, err := strconv.Atoi(v)
			return err == nil
		},
		message: "The %[1]s must be an integer.",
	},
	"boolean": {
		pass: func(v, _ string) bool {
			_, err := strconv.ParseBool(v)
			return err == nil
		},
		message: "The %[1]s field must be true or false.",
	},
	"max": {
		pass: func(v, p string) bool {
			n, err := strconv.Atoi(p)
			return err == nil && utf8.RuneCountInString(v) <= n
		},
		message: "The %[1]s may not be greater than %[2]s characters.",
	},
	"in": {
		pass:    func(v, p string) bool { return slices.Contains(splitParam(p), strings.ToLower(v)) },
		message: "The selected %[1]s is invalid.",
	},
	"alpha_dash": {
		pass:    func(v, _ string) bool { return alphaDash.MatchString(v) },
		message: "The %[1]s may only contain letters, numbers, dashes and underscores.",
	},
	"address": {
		pass: func(v, _ string) bool {
			_, port, err := net.SplitHostPort(v)
			return err == nil && port != ""
		},
		message: "The %[1]s must be a host:port address.",
	},
	"extensions": {
		pass:    hasExtensions,
		message: "The %[1]s entries must end in one of: %[2]s.",
	},
}

var alphaDash = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// hasExtensions reports whether every comma-separated item of v carries one
// of the extensions listed in param.
func hasExtensions(v, param string) bool {
	allowed := splitParam(param)
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(item)), ".")
		if !slices.Contains(allowed, ext) {
			return false
		}
	}
	return true
}

func splitParam(param string) []string {
	parts := strings.Split(param, ",")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return parts
}

// ── Validator ────────────────────────────────────────────────────────────────

// Validator validates a flat map of string values.
type Validator struct {
	data   map[string]string
	rules  Rules
	errors *Errors
	ran    bool
}

// Make creates a new Validator.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{data: data, rules: rules, errors: &Errors{}}
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	v.validate()
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the messages collected so far.
func (v *Validator) Errors() *Errors { return v.errors }

// Err runs validation and returns the messages as an error, or nil when every
// rule passes.
func (v *Validator) Err() error {
	if v.Fails() {
		return v.errors
	}
	return nil
}

func (v *Validator) validate() {
	if v.ran {
		return
	}
	v.ran = true
	for _, field := range slices.Sorted(maps.Keys(v.rules)) {
		value := v.data[field]
		for _, r := range strings.Split(v.rules[field], "|") {
			name, param, _ := strings.Cut(strings.TrimSpace(r), ":")
			if name == "" {
				continue
			}
			c, ok := checks[name]
			if !ok {
				v.errors.add(field, fmt.Sprintf("The %s has an unknown rule %q.", field, name))
				break
			}
			if c.pass(value, param) {
				continue
			}
			if !c.quiet {
				v.errors.add(field, fmt.Sprintf(c.message, field, param))
			}
			break
		}
	}
}
