package main

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/shazow/wifiscout/wifi"
)

var wifiEscaper = strings.NewReplacer(
	`\`, `\\`,
	`;`, `\;`,
	`,`, `\,`,
	`:`, `\:`,
	`"`, `\"`,
)

// EscapeWifiString handles the special character escaping for SSID and Password.
func EscapeWifiString(s string) string {
	return wifiEscaper.Replace(s)
}

// WifiURI builds the WIFI: string understood by phone cameras.
func WifiURI(ssid, password string, security wifi.SecurityType, isHidden bool) string {
	var b strings.Builder

	b.WriteString("WIFI:S:")
	b.WriteString(EscapeWifiString(ssid))
	b.WriteString(";")

	switch security {
	case wifi.SecurityWPA:
		b.WriteString("T:WPA;P:")
		b.WriteString(EscapeWifiString(password))
		b.WriteString(";")
	case wifi.SecurityWEP:
		b.WriteString("T:WEP;P:")
		b.WriteString(EscapeWifiString(password))
		b.WriteString(";")
	case wifi.SecurityOpen:
		b.WriteString("T:nopass;")
	default:
		// Most readers assume WPA without T.
		if password != "" {
			b.WriteString("P:")
			b.WriteString(EscapeWifiString(password))
			b.WriteString(";")
		}
	}

	if isHidden {
		b.WriteString("H:true;")
	}

	b.WriteString(";")
	return b.String()
}

// GenerateWifiQRCode returns a QR code for joining the network, rendered
// with half-block characters for the terminal.
func GenerateWifiQRCode(ssid, password string, security wifi.SecurityType, isHidden bool) (string, error) {
	q, err := qrcode.New(WifiURI(ssid, password, security, isHidden), qrcode.Medium)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}
