package glideshift

import (
	"fmt"
	"strconv"
	"strings"

	urlutil "github.com/projectdiscovery/utils/url"
)

// Client identifies the source Redis client API being migrated from.
type Client string

const (
	ClientIORedis   Client = "ioredis"
	ClientNodeRedis Client = "node-redis"
)

// Valid reports whether c is a supported source client.
func (c Client) Valid() bool {
	return c == ClientIORedis || c == ClientNodeRedis
}

// Source is a single migration request. It is created per call, consumed
// synchronously and discarded; nothing persists across requests.
type Source struct {
	Code string
	From Client
}

// ValidationError names the invalid or missing request fields. It is returned
// before any transformation is attempted.
type ValidationError struct {
	Fields  []string `json:"fields" yaml:"fields"`
	Message string   `json:"message" yaml:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request (%v): %v", strings.Join(e.Fields, ","), e.Message)
}

func (s *Source) validate() *ValidationError {
	var fields []string
	if strings.TrimSpace(s.Code) == "" {
		fields = append(fields, "code")
	}
	if !s.From.Valid() {
		fields = append(fields, "from")
	}
	if len(fields) > 0 {
		return &ValidationError{
			Fields:  fields,
			Message: fmt.Sprintf("code must be non-empty and from must be one of %v or %v", ClientIORedis, ClientNodeRedis),
		}
	}
	return nil
}

// connInfo holds connection fields parsed from a redis:// or rediss:// URL.
type connInfo struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
}

// parseRedisURL evaluates a connection URL into the fields used by the
// client-factory rewrite rules. Scheme decides TLS, userinfo carries
// credentials, missing port falls back to 6379.
func parseRedisURL(raw string) (*connInfo, error) {
	if !strings.HasPrefix(raw, "redis://") && !strings.HasPrefix(raw, "rediss://") {
		return nil, fmt.Errorf("%v is not a redis connection url", raw)
	}
	parsed, err := urlutil.Parse(raw)
	if err != nil {
		return nil, err
	}
	info := &connInfo{
		Host: parsed.Hostname(),
		Port: 6379,
		TLS:  parsed.Scheme == "rediss",
	}
	if info.Host == "" {
		info.Host = "localhost"
	}
	if p := parsed.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid port in %v: %v", raw, err)
		}
		info.Port = port
	}
	if parsed.User != nil {
		info.Username = parsed.User.Username()
		info.Password, _ = parsed.User.Password()
	}
	return info, nil
}

// configLiteral renders the factory configuration object for this connection
// in the shape GlideClient.createClient expects.
func (c *connInfo) configLiteral() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("{ addresses: [{ host: '%v', port: %v }]", c.Host, c.Port))
	if c.TLS {
		sb.WriteString(", useTLS: true")
	}
	if c.Username != "" || c.Password != "" {
		sb.WriteString(", credentials: { ")
		if c.Username != "" {
			sb.WriteString(fmt.Sprintf("username: '%v', ", c.Username))
		}
		sb.WriteString(fmt.Sprintf("password: '%v' }", c.Password))
	}
	sb.WriteString(" }")
	return sb.String()
}
