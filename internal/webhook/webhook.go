package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"contacthub/internal/logging"

	"go.uber.org/zap"
)

const (
	EventNewContact = "new_contact_added"
	TriggeredFrom   = "Contact Management System"
)

var (
	ErrInvalidURL    = errors.New("webhook url must be an absolute http(s) url")
	ErrForbiddenHost = errors.New("webhook host is on a loopback, private or link-local network")
)

type ContactInfo struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Timestamp string `json:"timestamp"`
}

type Payload struct {
	Event         string      `json:"event"`
	Contact       ContactInfo `json:"contact"`
	TriggeredFrom string      `json:"triggered_from"`
}

// NewContactPayload describes a contact added at t.
func NewContactPayload(name, email string, t time.Time) Payload {
	return Payload{
		Event: EventNewContact,
		Contact: ContactInfo{
			Name:      name,
			Email:     email,
			Timestamp: t.UTC().Format(time.RFC3339Nano),
		},
		TriggeredFrom: TriggeredFrom,
	}
}

// ValidateURL checks raw with the default Targets, which refuse internal hosts.
func ValidateURL(raw string) (string, error) {
	return Targets{}.Validate(raw)
}

// Targets decides which hosts webhooks may reach. Hooks are sent from the
// server, so by default anything that resolves to loopback, private,
// link-local, multicast or unspecified addresses is refused.
type Targets struct {
	AllowPrivate bool
}

// Validate normalizes raw and rejects it when it is not an absolute http(s)
// URL or names a refused host literally.
func (t Targets) Validate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Hostname() == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", ErrInvalidURL
	}
	if !t.AllowPrivate {
		host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
		if host == "localhost" || strings.HasSuffix(host, ".localhost") {
			return "", ErrForbiddenHost
		}
		if addr, err := netip.ParseAddr(host); err == nil && !publicAddr(addr) {
			return "", ErrForbiddenHost
		}
	}
	return u.String(), nil
}

// control runs after name resolution, so a public name that resolves to an
// internal address is refused as well.
func (t Targets) control(network, address string, _ syscall.RawConn) error {
	if t.AllowPrivate {
		return nil
	}
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return err
	}
	if !publicAddr(ap.Addr()) {
		return ErrForbiddenHost
	}
	return nil
}

func publicAddr(a netip.Addr) bool {
	a = a.Unmap()
	return a.IsValid() &&
		!a.IsLoopback() &&
		!a.IsPrivate() &&
		!a.IsLinkLocalUnicast() &&
		!a.IsLinkLocalMulticast() &&
		!a.IsInterfaceLocalMulticast() &&
		!a.IsMulticast() &&
		!a.IsUnspecified()
}

// Client posts payloads without reading the answer. Only transport failures
// are reported; delivery cannot be confirmed and nothing is retried.
type Client struct {
	HTTP *http.Client
	Log  *zap.Logger
}

func NewClient(timeout time.Duration, targets Targets, log *zap.Logger) *Client {
	dialer := &net.Dialer{Timeout: timeout, Control: targets.control}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = nil
	tr.DialContext = dialer.DialContext
	return &Client{HTTP: &http.Client{Timeout: timeout, Transport: tr}, Log: log}
}

func (c *Client) Fire(ctx context.Context, target string, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	logging.OrNop(c.Log).Debug("webhook fired",
		logging.URL("url", target),
		zap.String("event", p.Event),
		zap.Int("status", resp.StatusCode))
	return nil
}
