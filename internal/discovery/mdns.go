package discovery

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/pion/mdns/v2"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// ResolveHub looks the hub up on the local network by its mDNS name (e.g.
// "homelink-hub.local") and returns its address. Used when no base URL is
// configured.
func ResolveHub(ctx context.Context, localName string) (string, error) {
	conn, err := newConn(nil)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	_, addr, err := conn.QueryAddr(ctx, localName)
	if err != nil {
		return "", fmt.Errorf("discovery: query %s: %w", localName, err)
	}
	log.Printf("DISCOVERY: resolved %s to %s", localName, addr)
	return addr.String(), nil
}

// Advertise answers mDNS queries for the given name. The simulator uses it
// so controllers can find the dev hub without configuration.
func Advertise(localName string) (*mdns.Conn, error) {
	return newConn([]string{localName})
}

func newConn(localNames []string) (*mdns.Conn, error) {
	addr4, err := net.ResolveUDPAddr("udp4", mdns.DefaultAddressIPv4)
	if err != nil {
		return nil, fmt.Errorf("discovery: resolve udp4: %w", err)
	}
	addr6, err := net.ResolveUDPAddr("udp6", mdns.DefaultAddressIPv6)
	if err != nil {
		return nil, fmt.Errorf("discovery: resolve udp6: %w", err)
	}

	l4, err := net.ListenUDP("udp4", addr4)
	if err != nil {
		return nil, fmt.Errorf("discovery: listen udp4: %w", err)
	}
	l6, err := net.ListenUDP("udp6", addr6)
	if err != nil {
		l4.Close()
		return nil, fmt.Errorf("discovery: listen udp6: %w", err)
	}

	conn, err := mdns.Server(ipv4.NewPacketConn(l4), ipv6.NewPacketConn(l6), &mdns.Config{
		LocalNames: localNames,
	})
	if err != nil {
		return nil, fmt.Errorf("discovery: mdns server: %w", err)
	}
	return conn, nil
}
