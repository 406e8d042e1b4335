package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dawsh2/torq/pkg/tlv"
)

func tradePipeline() Pipeline[tlv.TradeTLV, tlv.TradeTLV] {
	return Pipeline[tlv.TradeTLV, tlv.TradeTLV]{
		ParseRaw:  func(raw tlv.TradeTLV) (tlv.TradeTLV, error) { return raw, nil },
		Serialize: func(v tlv.TradeTLV) ([]byte, error) { return v.Encode(), nil },
		Deserialize: func(b []byte) (tlv.TradeTLV, error) {
			return tlv.DecodeTradeTLV(b)
		},
	}
}

func TestPipelinePassesOnValidTrade(t *testing.T) {
	p := tradePipeline()
	res := p.Check(tlv.TradeTLV{Venue: 100, InstrumentID: 1, Price: 500000000000, Volume: 100000000, TimestampNs: 1})
	assert.True(t, res.Passed)
}

func TestPipelineDetectsDeserializeFailure(t *testing.T) {
	p := Pipeline[tlv.TradeTLV, tlv.TradeTLV]{
		ParseRaw: func(raw tlv.TradeTLV) (tlv.TradeTLV, error) { return raw, nil },
		Serialize: func(v tlv.TradeTLV) ([]byte, error) {
			return v.Encode()[:tlv.TradeTLVSize-1], nil // corrupt: wrong length
		},
		Deserialize: tlv.DecodeTradeTLV,
	}
	res := p.Check(tlv.TradeTLV{Venue: 1, InstrumentID: 1, Price: 1, Volume: 1, TimestampNs: 1})
	assert.False(t, res.Passed)
	assert.Equal(t, StepDeserialize, res.Step)
}

func TestRunBatchReleaseCriterion(t *testing.T) {
	p := tradePipeline()
	samples := make([]tlv.TradeTLV, 100)
	for i := range samples {
		samples[i] = tlv.TradeTLV{Venue: 1, InstrumentID: uint64(i), Price: 1, Volume: 1, TimestampNs: uint64(i)}
	}

	report, failures := RunBatch(p, samples)
	assert.Empty(t, failures)
	assert.Equal(t, 100, report.Total)
	assert.True(t, report.MeetsReleaseCriterion())
}

func TestReportPassRateEmptyCorpus(t *testing.T) {
	var r Report
	assert.Equal(t, 1.0, r.PassRate())
	assert.True(t, r.MeetsReleaseCriterion())
}
