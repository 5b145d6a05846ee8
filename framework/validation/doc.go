// Package validation checks flat string maps against pipe-separated rules.
//
// # Basic Usage
//
//	v := validation.Make(map[string]string{
//	    "IOC_LOG_LEVEL": "debug",
//	    "IOC_SOURCES":   "app.xml,extra.yaml",
//	}, validation.Rules{
//	    "IOC_LOG_LEVEL": "required|in:debug,info,warn,error",
//	    "IOC_SOURCES":   "nullable|extensions:xml,yaml,yml",
//	})
//
//	if err := v.Err(); err != nil {
//	    // v.Errors().All(field) holds the messages per field
//	}
//
// Fields are validated in sorted order; the first failing rule of a field
// stops the remaining rules for that field.
//
// # Available Rules
//
//   - required        field must be present and non-empty
//   - nullable        an empty value skips the remaining rules
//   - integer         parses as an int
//   - boolean         parses with strconv.ParseBool
//   - max:n           at most n UTF-8 characters
//   - in:a,b,c        one of the listed values (case-insensitive)
//   - alpha_dash      letters, digits, '-' and '_'
//   - address         a host:port listen address
//   - extensions:a,b  every comma-separated item has one of the extensions
//
// An unknown rule name fails the field.
package validation
