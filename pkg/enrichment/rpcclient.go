package enrichment

import (
	"context"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dawsh2/torq/pkg/torqerr"
)

// Raw 4-byte function selectors, the same raw-calldata style
// other_examples/e6e53325_bimakw-dex-aggregator__...uniswap_v3.go.go uses
// for getPool/quoteExactInputSingle, rather than pulling in full ABI
// bindings for three trivial read-only calls.
var (
	token0Selector   = common.Hex2Bytes("0dfe1681")
	token1Selector   = common.Hex2Bytes("d21220a7")
	decimalsSelector = common.Hex2Bytes("313ce567")
)

// RPCClient discovers a pool's constituent tokens and each token's
// decimals via an ordered fallback list of JSON-RPC endpoints (spec
// §4.8), replacing the teacher's Stellar-specific stellar-rpc/client with
// go-ethereum's ethclient/rpc for this EVM chain.
type RPCClient struct {
	endpoints []string
	clients   []*ethclient.Client
}

// Dial connects to every endpoint in order, keeping each connection open
// so DiscoverPool can fail over without redialing.
func Dial(ctx context.Context, endpoints []string) (*RPCClient, error) {
	if len(endpoints) == 0 {
		return nil, torqerr.New(torqerr.Configuration, "enrichment.Dial", "at least one RPC endpoint is required")
	}
	clients := make([]*ethclient.Client, 0, len(endpoints))
	for _, ep := range endpoints {
		c, err := ethclient.DialContext(ctx, ep)
		if err != nil {
			continue // ordered fallback: a dead endpoint at dial time just drops out of rotation
		}
		clients = append(clients, c)
	}
	if len(clients) == 0 {
		return nil, torqerr.New(torqerr.Connection, "enrichment.Dial", "no RPC endpoint could be dialed")
	}
	return &RPCClient{endpoints: endpoints, clients: clients}, nil
}

// Close tears down every dialed client.
func (r *RPCClient) Close() {
	for _, c := range r.clients {
		c.Close()
	}
}

// DiscoverPool calls token0(), token1(), and each token's decimals()
// against pool/tokens, trying each client in order and falling through to
// the next on any error — the "ordered fallback list" spec §4.8 calls
// for. Returns an error only once every client has failed.
func (r *RPCClient) DiscoverPool(ctx context.Context, pool common.Address) (PoolRecord, error) {
	var lastErr error
	for _, client := range r.clients {
		rec, err := discoverWith(ctx, client, pool)
		if err == nil {
			return rec, nil
		}
		lastErr = err
	}
	return PoolRecord{}, torqerr.Wrap(torqerr.Connection, "enrichment.DiscoverPool", lastErr)
}

func discoverWith(ctx context.Context, client *ethclient.Client, pool common.Address) (PoolRecord, error) {
	token0, err := callAddress(ctx, client, pool, token0Selector)
	if err != nil {
		return PoolRecord{}, err
	}
	token1, err := callAddress(ctx, client, pool, token1Selector)
	if err != nil {
		return PoolRecord{}, err
	}
	dec0, err := callDecimals(ctx, client, token0)
	if err != nil {
		return PoolRecord{}, err
	}
	dec1, err := callDecimals(ctx, client, token1)
	if err != nil {
		return PoolRecord{}, err
	}
	return PoolRecord{Token0: token0, Token1: token1, Token0Decimals: dec0, Token1Decimals: dec1}, nil
}

func callAddress(ctx context.Context, client *ethclient.Client, to common.Address, selector []byte) (common.Address, error) {
	result, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: selector}, nil)
	if err != nil {
		return common.Address{}, err
	}
	if len(result) < 32 {
		return common.Address{}, torqerr.New(torqerr.Protocol, "enrichment.callAddress", "short RPC response")
	}
	return common.BytesToAddress(result[12:32]), nil
}

func callDecimals(ctx context.Context, client *ethclient.Client, token common.Address) (uint8, error) {
	result, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: decimalsSelector}, nil)
	if err != nil {
		return 0, err
	}
	if len(result) < 32 {
		return 0, torqerr.New(torqerr.Protocol, "enrichment.callDecimals", "short RPC response")
	}
	return result[31], nil
}
