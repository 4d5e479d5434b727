// Package core provides the core message-passing types shared by every
// transport, the listener, and the action pipeline: Peer, Message,
// Metadata, FieldIdentity, and DomainMap.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package core

import "fmt"

// Peer identifies an endpoint - a client or a server - by domain name and
// a small integer id within that domain. Equality is by both fields.
type Peer struct {
	Domain string
	ID     int
}

func NewPeer(domain string, id int) Peer { return Peer{Domain: domain, ID: id} }

func (p Peer) Equal(o Peer) bool { return p.Domain == o.Domain && p.ID == o.ID }

func (p Peer) String() string { return fmt.Sprintf("%s/%d", p.Domain, p.ID) }

func (p Peer) IsZero() bool { return p.Domain == "" && p.ID == 0 }
