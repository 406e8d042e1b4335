// Package relay implements the domain-partitioned pub-sub fabric (spec
// §4.4): per-domain validation policy, topic-based fan-out, consumer
// registry, and the relay's publish path.
package relay

import "github.com/dawsh2/torq/pkg/tlv"

// ValidationPolicy is the per-domain knob set spec §4.4's table defines.
type ValidationPolicy struct {
	Checksum    bool
	Audit       bool
	StrictSize  bool
	MaxMsgBytes int
}

// PolicyFor returns the fixed validation policy for domain, per spec
// §4.4's table: MarketData favors throughput (checks off), Signal and
// Execution favor correctness (checksum and strict size on, Execution
// additionally audited).
func PolicyFor(domain tlv.RelayDomain) ValidationPolicy {
	switch domain {
	case tlv.DomainMarketData:
		return ValidationPolicy{Checksum: false, Audit: false, StrictSize: false, MaxMsgBytes: 64 * 1024}
	case tlv.DomainSignal:
		return ValidationPolicy{Checksum: true, Audit: false, StrictSize: true, MaxMsgBytes: 32 * 1024}
	case tlv.DomainExecution:
		return ValidationPolicy{Checksum: true, Audit: true, StrictSize: true, MaxMsgBytes: 16 * 1024}
	default:
		return ValidationPolicy{Checksum: true, Audit: true, StrictSize: true, MaxMsgBytes: 16 * 1024}
	}
}

// ParseMode returns the tlv.Mode a domain's policy implies: StrictSize
// maps directly onto tlv.Strict vs tlv.Relay.
func (p ValidationPolicy) ParseMode() tlv.Mode {
	if p.StrictSize {
		return tlv.Strict
	}
	return tlv.Relay
}
