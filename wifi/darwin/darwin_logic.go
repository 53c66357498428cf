package darwin

import (
	"fmt"
	"strings"

	"github.com/shazow/wifiscout/wifi"
)

// shellEscaper escapes the characters that stay special inside double quotes.
var shellEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`$`, `\$`,
	"`", "\\`",
)

func shellQuote(s string) string {
	return `"` + shellEscaper.Replace(s) + `"`
}

// joinCommandLine builds the shell command that joins ssid. Output from both
// streams is merged so failures can be read from it.
func joinCommandLine(iface, ssid, password string) string {
	args := []string{"networksetup", "-setairportnetwork", shellQuote(iface), shellQuote(ssid)}
	if password != "" {
		args = append(args, shellQuote(password))
	}
	return strings.Join(args, " ") + " 2>&1"
}

// joinFailed reports whether networksetup output describes a failure, e.g.
// "Failed to join network Foo." or "Could not find network Foo.".
func joinFailed(output string) bool {
	s := strings.ToLower(output)
	for _, marker := range []string{"error", "failed", "could not"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// TerminalApp maps $TERM_PROGRAM to the application name used to restore focus.
func TerminalApp(termProgram string) string {
	switch termProgram {
	case "Apple_Terminal":
		return "Terminal"
	case "iTerm.app":
		return "iTerm"
	case "vscode":
		return "Visual Studio Code"
	case "WezTerm":
		return "WezTerm"
	case "ghostty":
		return "Ghostty"
	}
	return ""
}

// findWifiDevice parses the output of `networksetup -listallhardwareports` to find the Wi-Fi device.
func findWifiDevice(output string) (string, error) {
	// The output is a series of stanzas, separated by blank lines.
	// Each stanza describes a hardware port.
	stanzas := strings.Split(output, "\n\n")
	for _, stanza := range stanzas {
		var device string
		isWifiPort := false
		for _, line := range strings.Split(stanza, "\n") {
			if port, ok := strings.CutPrefix(line, "Hardware Port: "); ok {
				isWifiPort = strings.Contains(port, "Wi-Fi") || strings.Contains(port, "AirPort")
			}
			if d, ok := strings.CutPrefix(line, "Device: "); ok {
				device = d
			}
		}
		if isWifiPort && device != "" {
			return device, nil
		}
	}
	return "", fmt.Errorf("no Wi-Fi interface found: %w", wifi.ErrNotFound)
}
