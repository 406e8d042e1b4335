package relay

import (
	"encoding/binary"
	"strconv"

	"github.com/dawsh2/torq/pkg/tlv"
	"github.com/dawsh2/torq/pkg/torqerr"
)

// ExtractionStrategy selects how Extract derives a topic string from a
// published message (spec §4.4/§6.3).
type ExtractionStrategy int

const (
	BySourceType ExtractionStrategy = iota
	ByInstrumentVenue
	ByCustomField
	ByFixed
)

// TopicConfig binds a relay's topic extraction behavior. DefaultTLVType
// names which TLV type CustomField extraction reads its field from: "the
// first TLV's payload whose type matches the domain's default topic TLV
// type" (SPEC_FULL.md §9's resolution of the CustomField Open Question).
type TopicConfig struct {
	Strategy          ExtractionStrategy
	FixedTopic        string
	DefaultTLVType    uint8
	CustomFieldOffset int
	MaxTopicsPerConsumer int
}

// Extract derives the topic string msg routes under, given cfg and the
// message's header.
func Extract(msg tlv.Message, cfg TopicConfig) (string, error) {
	switch cfg.Strategy {
	case ByFixed:
		return cfg.FixedTopic, nil

	case BySourceType:
		return strconv.Itoa(int(msg.Header.SourceType)), nil

	case ByInstrumentVenue:
		ext, ok := msg.Find(cfg.DefaultTLVType)
		if !ok || len(ext.Value) < 2 {
			return "", torqerr.New(torqerr.Protocol, "relay.Extract",
				"message carries no TLV to extract an instrument venue from")
		}
		venue := binary.LittleEndian.Uint16(ext.Value[0:2])
		return strconv.Itoa(int(venue)), nil

	case ByCustomField:
		ext, ok := msg.Find(cfg.DefaultTLVType)
		if !ok {
			return "", torqerr.New(torqerr.Protocol, "relay.Extract",
				"message carries no TLV of the domain's default topic type")
		}
		off := cfg.CustomFieldOffset
		if off+2 > len(ext.Value) {
			return "", torqerr.New(torqerr.Configuration, "relay.Extract",
				"custom_field_offset exceeds payload length")
		}
		v := binary.LittleEndian.Uint16(ext.Value[off : off+2])
		return strconv.Itoa(int(v)), nil

	default:
		return "", torqerr.New(torqerr.Configuration, "relay.Extract", "unknown extraction strategy")
	}
}

// ValidateTopicConfig checks a CustomField strategy's offset against a
// representative payload length at relay startup, per SPEC_FULL.md §9:
// an out-of-range offset is a Configuration error raised at startup, not
// a runtime panic on the hot path.
func ValidateTopicConfig(cfg TopicConfig, sampleTLVPayloadLen int) error {
	if cfg.Strategy != ByCustomField {
		return nil
	}
	if cfg.CustomFieldOffset < 0 || cfg.CustomFieldOffset+2 > sampleTLVPayloadLen {
		return torqerr.New(torqerr.Configuration, "relay.ValidateTopicConfig",
			"custom_field_offset does not fit within the default topic TLV type's payload")
	}
	return nil
}
