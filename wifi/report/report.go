// Package report parses the text report printed by
// `system_profiler SPAirPortDataType` into a wifi.Snapshot.
package report

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shazow/wifiscout/wifi"
)

const (
	currentHeader = "Current Network Information:"
	othersHeader  = "Other Local Wi-Fi Networks:"

	defaultSignal   = -70
	defaultSecurity = "Unknown"
)

var signalRe = regexp.MustCompile(`-?\d+`)

type parseState int

const (
	stateSeeking parseState = iota
	stateCurrent
	stateNetworks
)

// record is a network whose properties are still being read.
type record struct {
	wifi.Network
	hasSignal bool
}

type parser struct {
	state parseState

	currentSSID string
	// expectCurrent is set between the current network header and the next
	// non-blank line.
	expectCurrent bool

	headerIndent int
	// networkIndent is the indentation of the first network name seen in the
	// section, or -1 before that.
	networkIndent int

	record   *record
	networks []wifi.Network
}

func newParser() *parser {
	return &parser{networkIndent: -1}
}

// Parse turns the report into a snapshot. The report format is undocumented
// and varies between OS versions, so anything unrecognized is skipped and an
// unrecognizable report yields an empty snapshot.
func Parse(text string) wifi.Snapshot {
	p := newParser()
	for _, line := range strings.Split(text, "\n") {
		p.feed(line)
	}
	return p.snapshot()
}

func (p *parser) enter(state parseState, indent int) {
	p.flush()
	p.state = state
	p.headerIndent = indent
	p.networkIndent = -1
	p.expectCurrent = false
}

func (p *parser) feed(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	indent := indentOf(line)

	switch {
	case strings.HasPrefix(trimmed, currentHeader):
		p.enter(stateCurrent, indent)
		p.expectCurrent = true
		return
	case strings.HasPrefix(trimmed, othersHeader):
		p.enter(stateNetworks, indent)
		return
	}

	if p.state == stateSeeking {
		return
	}

	// A new top-level section, or a sibling of the section header such as
	// the next interface, ends the section.
	if (indent == 0 && strings.Contains(trimmed, ":")) || (indent > 0 && indent <= p.headerIndent) {
		p.enter(stateSeeking, 0)
		return
	}

	if p.expectCurrent {
		p.expectCurrent = false
		if startsWithIdentifier(trimmed) {
			p.currentSSID = strings.TrimSuffix(trimmed, ":")
		}
	}

	key, value, isProperty := strings.Cut(trimmed, ": ")
	if !isProperty {
		if p.networkIndent < 0 {
			p.networkIndent = indent
		}
		// Lines at any other indentation are sub-properties without a value.
		if indent == p.networkIndent {
			p.flush()
			p.record = &record{Network: wifi.Network{SSID: strings.TrimSuffix(trimmed, ":")}}
		}
		return
	}

	if p.record == nil || indent <= p.networkIndent {
		return
	}
	p.record.set(key, strings.TrimSpace(value))
}

func (r *record) set(key, value string) {
	switch {
	case strings.HasPrefix(key, "Security"):
		r.Security = value
	case strings.HasPrefix(key, "Channel"):
		// "36 (5GHz, 80MHz)"
		if fields := strings.Fields(value); len(fields) > 0 {
			r.Channel = fields[0]
		}
	case strings.HasPrefix(key, "Signal / Noise"):
		if m := signalRe.FindString(value); m != "" {
			if signal, err := strconv.Atoi(m); err == nil {
				r.Signal = signal
				r.hasSignal = true
			}
		}
	case strings.HasPrefix(key, "BSSID"), strings.HasPrefix(key, "MAC Address"):
		r.BSSID = value
	}
}

// flush emits the pending record if it is complete enough to join.
func (p *parser) flush() {
	r := p.record
	p.record = nil
	if r == nil || r.Channel == "" {
		return
	}
	if !r.hasSignal {
		r.Signal = defaultSignal
	}
	if r.Security == "" {
		r.Security = defaultSecurity
	}
	if r.BSSID == "" {
		r.BSSID = r.SSID + "-" + r.Channel
	}
	p.networks = append(p.networks, r.Network)
}

func (p *parser) snapshot() wifi.Snapshot {
	p.flush()

	seen := make(map[string]bool)
	networks := make([]wifi.Network, 0, len(p.networks))
	for _, n := range p.networks {
		if seen[n.Key()] {
			continue
		}
		seen[n.Key()] = true
		n.IsCurrent = p.currentSSID != "" && n.SSID == p.currentSSID
		networks = append(networks, n)
	}
	wifi.SortNetworks(networks)

	return wifi.Snapshot{
		CurrentSSID: p.currentSSID,
		Networks:    networks,
	}
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func startsWithIdentifier(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
