package command

import (
	"fmt"
	"strings"
)

// dangerousTokens reject a command outright, regardless of anything else:
// destructive file ops, privilege escalation, process/service control,
// remote shell protocols, and redirection/chaining operators.
var dangerousTokens = []string{
	"rm ", "rm\t", "rmdir", "mkfs", "dd ", "shred",
	"mv ", "chmod", "chown", "chgrp",
	"sudo", "su ", "doas",
	"kill", "pkill", "killall",
	"systemctl", "service ", "init ", "shutdown", "reboot", "halt", "poweroff",
	"ssh", "telnet", "nc ", "ncat", "netcat",
	">", ">>", "<", "|", ";", "&&", "||", "&", "`", "$(",
	"eval", "exec ", "source ", "crontab",
}

// safeCommands is the allowlist of first tokens: read-only utilities,
// curl/wget fetches, and informational system commands.
var safeCommands = map[string]bool{
	"curl": true, "wget": true,
	"date": true, "cal": true, "uptime": true,
	"uname": true, "hostname": true, "whoami": true, "id": true,
	"df": true, "free": true, "nproc": true,
	"ls": true, "pwd": true, "wc": true, "head": true, "tail": true, "cat": true,
	"echo": true, "printf": true,
	"ping": true, "ip": true, "ifconfig": true, "dig": true, "nslookup": true,
}

// safeDomains is the allowlist of hosts a fetched URL may reference
var safeDomains = []string{
	"wttr.in",
	"api.ipify.org",
	"ifconfig.me",
	"ipinfo.io",
	"open.er-api.com",
	"api.exchangerate-api.com",
	"feeds.bbci.co.uk",
	"api.duckduckgo.com",
	"worldtimeapi.org",
}

// CheckSafety classifies a command as safe or not. The dangerous-token
// blocklist takes precedence over every allowlist; commands meeting neither
// allowlist bar are rejected too (default-deny). Applied identically no
// matter who proposed the command.
func CheckSafety(commandLine string) error {
	trimmed := strings.TrimSpace(commandLine)
	if trimmed == "" {
		return fmt.Errorf("command is empty")
	}

	padded := trimmed + " " // so trailing "rm" style tokens still match
	lower := strings.ToLower(padded)
	for _, tok := range dangerousTokens {
		if strings.Contains(lower, tok) {
			return fmt.Errorf("command rejected: contains forbidden token %q", strings.TrimSpace(tok))
		}
	}

	fields := strings.Fields(trimmed)
	if safeCommands[strings.ToLower(fields[0])] {
		return nil
	}

	for _, domain := range safeDomains {
		if strings.Contains(lower, domain) {
			return nil
		}
	}

	return fmt.Errorf("command rejected: %q is not an allowed command and references no trusted host", fields[0])
}
