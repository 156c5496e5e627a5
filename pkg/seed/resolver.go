// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package seed

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/miekg/dns"
)

const (
	// defaultTimeout is the default DNS query timeout.
	defaultTimeout = 5 * time.Second

	// defaultDNSPort is the standard DNS port.
	defaultDNSPort = "53"

	// defaultDoTPort is the standard DNS-over-TLS port.
	defaultDoTPort = "853"

	// resolvConfPath is where the system resolver configuration lives.
	resolvConfPath = "/etc/resolv.conf"

	// nodeIDHRP is the bech32 human-readable prefix of node identifiers
	// in SRV targets.
	nodeIDHRP = "ln"

	// nodeIDLen is the decoded length of a node identifier: a compressed
	// secp256k1 public key.
	nodeIDLen = 33
)

// Config configures a DNS seed resolver.
type Config struct {
	// Seed is the seed root domain, e.g. "nodes.lightning.directory".
	Seed string

	// Server is the DNS server to query ("host" or "host:port"). Empty
	// selects the system resolver from /etc/resolv.conf.
	Server string

	// UseTLS enables DNS-over-TLS to the configured server.
	UseTLS bool

	// TLSServerName overrides the server name used for TLS verification.
	TLSServerName string

	// Timeout is the per-query timeout. Zero value selects defaultTimeout.
	Timeout time.Duration

	// Logger receives per-record debug events. Nil selects slog.Default().
	Logger *slog.Logger
}

// NodeAddr is one bootstrap candidate returned by the seed: a node
// identity plus a reachable address.
type NodeAddr struct {
	// ID is the node's 33-byte compressed public key.
	ID []byte

	// Host is the node's resolved IP address.
	Host string

	// Port is the node's advertised TCP port.
	Port uint16
}

// Resolver performs BOLT #10 SRV walks against a DNS seed.
type Resolver struct {
	config *Config
	client *dns.Client
	server string
	logger *slog.Logger
}

// NewResolver creates a seed resolver, applying sensible defaults for any
// unset fields.
func NewResolver(cfg *Config) (*Resolver, error) {
	if cfg == nil || cfg.Seed == "" {
		return nil, fmt.Errorf("%w: seed domain required", ErrResolverConfig)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &dns.Client{
		Net:     "udp",
		Timeout: timeout,
	}
	if cfg.UseTLS {
		client.Net = "tcp-tls"
		client.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: cfg.TLSServerName,
		}
	}

	server, err := serverAddr(cfg)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		config: cfg,
		client: client,
		server: server,
		logger: logger,
	}, nil
}

// serverAddr picks the nameserver to query. A configured server is used
// as-is when it already carries a port, and otherwise completed with the
// transport's default; with no server configured, the walk goes to the
// first nameserver the system resolver configuration lists.
func serverAddr(cfg *Config) (string, error) {
	if cfg.Server != "" {
		if _, _, err := net.SplitHostPort(cfg.Server); err == nil {
			return cfg.Server, nil
		}
		if cfg.UseTLS {
			return net.JoinHostPort(cfg.Server, defaultDoTPort), nil
		}
		return net.JoinHostPort(cfg.Server, defaultDNSPort), nil
	}

	system, err := dns.ClientConfigFromFile(resolvConfPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrResolverConfig, err.Error())
	}
	if len(system.Servers) == 0 {
		return "", fmt.Errorf("%w: %s lists no nameservers", ErrResolverConfig, resolvConfPath)
	}

	port := system.Port
	if port == "" {
		port = defaultDNSPort
	}
	return net.JoinHostPort(system.Servers[0], port), nil
}

// Nodes queries the seed's SRV tree ("_nodes._tcp.<seed>.") and returns a
// bootstrap candidate for every record whose node identifier decodes and
// whose host resolves. Records that fail either step are skipped with a
// debug log rather than failing the whole walk.
func (r *Resolver) Nodes(ctx context.Context) ([]NodeAddr, error) {
	qname := dns.Fqdn("_nodes._tcp." + r.config.Seed)

	msg := new(dns.Msg)
	msg.SetQuestion(qname, dns.TypeSRV)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLookupFailed, err.Error())
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: rcode %s", ErrLookupFailed, dns.RcodeToString[resp.Rcode])
	}

	var nodes []NodeAddr
	for _, rr := range resp.Answer {
		srv, ok := rr.(*dns.SRV)
		if !ok {
			continue
		}

		id, err := decodeNodeID(srv.Target)
		if err != nil {
			r.logger.Debug("skipping seed record", "target", srv.Target, "error", err)
			continue
		}

		host, err := r.lookupHost(ctx, srv.Target)
		if err != nil {
			r.logger.Debug("skipping unresolvable seed record", "target", srv.Target, "error", err)
			continue
		}

		nodes = append(nodes, NodeAddr{
			ID:   id,
			Host: host,
			Port: srv.Port,
		})
	}

	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}
	return nodes, nil
}

// ResolveNode queries the seed for the address of a single known node by
// its bech32 identifier label.
func (r *Resolver) ResolveNode(ctx context.Context, nodeID string) (string, error) {
	if _, err := decodeNodeID(nodeID + "." + r.config.Seed); err != nil {
		return "", err
	}
	return r.lookupHost(ctx, dns.Fqdn(nodeID+"."+r.config.Seed))
}

// lookupHost resolves a seed subdomain to its first A or AAAA address.
func (r *Resolver) lookupHost(ctx context.Context, name string) (string, error) {
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(name), qtype)
		msg.RecursionDesired = true

		resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrLookupFailed, err.Error())
		}
		if resp.Rcode != dns.RcodeSuccess {
			continue
		}

		for _, rr := range resp.Answer {
			switch addr := rr.(type) {
			case *dns.A:
				return addr.A.String(), nil
			case *dns.AAAA:
				return addr.AAAA.String(), nil
			}
		}
	}
	return "", fmt.Errorf("%w: no address records for %s", ErrLookupFailed, name)
}

// decodeNodeID extracts the leading label of an SRV target and decodes it
// as a bech32 node identifier with the "ln" prefix.
func decodeNodeID(target string) ([]byte, error) {
	label, _, found := strings.Cut(target, ".")
	if !found || label == "" {
		return nil, fmt.Errorf("%w: target %q", ErrInvalidNodeID, target)
	}

	hrp, data, err := bech32.Decode(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidNodeID, err.Error())
	}
	if hrp != nodeIDHRP {
		return nil, fmt.Errorf("%w: prefix %q", ErrInvalidNodeID, hrp)
	}

	id, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidNodeID, err.Error())
	}
	if len(id) != nodeIDLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidNodeID, len(id))
	}
	return id, nil
}
