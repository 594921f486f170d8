package infrastructure

import "strings"

// Characters that force quoting when a command line is echoed to a log.
const shellSpecials = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// ShellEscapeCommand renders a binary and its arguments as a copy-pasteable
// shell line for log output. exec.Command itself never sees this string.
func ShellEscapeCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellEscape(binary))
	for _, arg := range args {
		parts = append(parts, shellEscape(arg))
	}
	return strings.Join(parts, " ")
}

// shellEscape single-quotes a value when it contains anything a shell would
// interpret. Embedded single quotes become '\'' so the quoting stays valid.
func shellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecials) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
