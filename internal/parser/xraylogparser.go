package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"one-ui-backend/internal/model"
)

// LogParser turns raw xray-core log lines into structured entries. Kind
// selects the grammar: access lines carry connection routing fields, error
// lines carry a severity and free-form content.
type LogParser interface {
	Parse(line string, kind string) (*model.XrayLogEntry, error)
}

type xrayLogParser struct {
	accessRegex *regexp.Regexp
	errorRegex  *regexp.Regexp
}

func NewXrayLogParser() LogParser {
	// Access groups: 1:Timestamp, 2:Source, 3:Verdict, 4:Destination,
	// 5:Route (optional), 6:Email (optional), 7:Trailing detail (optional,
	// rejection reasons)
	access := regexp.MustCompile(`^(\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}(?:\.\d+)?)\s+from\s+(\S+)\s+(accepted|rejected)\s+(\S+)(?:\s+\[([^\]]+)\])?(?:\s+email:\s*(\S+))?(?:\s+(.*?))?\s*$`)
	// Error groups: 1:Timestamp, 2:Level, 3:Content
	errRe := regexp.MustCompile(`^(\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}(?:\.\d+)?)\s+\[([A-Za-z]+)\]\s+(.*)$`)
	return &xrayLogParser{accessRegex: access, errorRegex: errRe}
}

// time.Parse accepts a fractional second after the seconds field even when
// the layout omits it, so one layout covers both log variants.
const timestampLayout = "2006/01/02 15:04:05"

func (p *xrayLogParser) Parse(line string, kind string) (*model.XrayLogEntry, error) {
	switch kind {
	case model.XrayLogKindAccess:
		return p.parseAccess(line)
	case model.XrayLogKindError:
		return p.parseError(line)
	default:
		return nil, fmt.Errorf("unknown log kind: %s", kind)
	}
}

func (p *xrayLogParser) parseAccess(line string) (*model.XrayLogEntry, error) {
	matches := p.accessRegex.FindStringSubmatch(line)
	if matches == nil {
		log.Debug().Str("line", line).Msg("Access log line did not match expected format")
		return nil, fmt.Errorf("line does not match access log format: %s", line)
	}

	timestamp, err := time.Parse(timestampLayout, matches[1])
	if err != nil {
		log.Error().Err(err).Str("datetime_string", matches[1]).Msg("Failed to parse log timestamp")
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	level := "info"
	if matches[3] == "rejected" {
		level = "warning"
	}

	inbound, outbound := splitRoute(matches[5])

	content := matches[3] + " " + matches[4]
	if matches[7] != "" {
		content += " " + matches[7]
	}

	return &model.XrayLogEntry{
		Timestamp:   timestamp.UTC(),
		Kind:        model.XrayLogKindAccess,
		Level:       level,
		Source:      matches[2],
		Destination: matches[4],
		User:        matches[6],
		Inbound:     inbound,
		Outbound:    outbound,
		Content:     content,
		Raw:         line,
	}, nil
}

func (p *xrayLogParser) parseError(line string) (*model.XrayLogEntry, error) {
	matches := p.errorRegex.FindStringSubmatch(line)
	if matches == nil {
		log.Debug().Str("line", line).Msg("Error log line did not match expected format")
		return nil, fmt.Errorf("line does not match error log format: %s", line)
	}

	timestamp, err := time.Parse(timestampLayout, matches[1])
	if err != nil {
		log.Error().Err(err).Str("datetime_string", matches[1]).Msg("Failed to parse log timestamp")
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	return &model.XrayLogEntry{
		Timestamp: timestamp.UTC(),
		Kind:      model.XrayLogKindError,
		Level:     strings.ToLower(matches[2]),
		Content:   strings.TrimSpace(matches[3]),
		Raw:       line,
	}, nil
}

// splitRoute breaks "inbound >> outbound" route tags apart.
func splitRoute(route string) (string, string) {
	if route == "" {
		return "", ""
	}
	parts := strings.Split(route, ">>")
	if len(parts) != 2 {
		return strings.TrimSpace(route), ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}
