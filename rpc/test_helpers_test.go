package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"raritystake/core"
	"raritystake/core/events"
	"raritystake/core/genesis"
	"raritystake/crypto"
	"raritystake/storage"
	"raritystake/storage/journal"
)

const (
	testToken     = "test-token"
	testStartTime = int64(1_700_000_000)
)

type testEnv struct {
	server  *Server
	handler http.Handler
	node    *core.Node
	journal *journal.Store
	feed    *events.Feed
	owner   [20]byte
	user    [20]byte
	nextID  int
}

func newTestAddress(t *testing.T) [20]byte {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key.Address()
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, ServerConfig{AuthToken: testToken}, true)
}

func newTestEnvWithConfig(t *testing.T, cfg ServerConfig, devMode bool) *testEnv {
	t.Helper()
	store, err := journal.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), nil)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	feed := events.NewFeed()
	node, err := core.NewNode(storage.NewMemDB(),
		core.WithEmitter(events.MultiEmitter{store, feed}),
		core.WithClock(func() int64 { return testStartTime }),
		core.WithDevMode(devMode))
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	owner := newTestAddress(t)
	pool := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))
	if err := node.ApplyGenesis(genesis.Default(owner, pool, pool)); err != nil {
		t.Fatalf("apply genesis: %v", err)
	}
	server := NewServer(node, store, cfg, nil)
	server.AttachFeed(feed)
	return &testEnv{
		server:  server,
		handler: server.Handler(),
		node:    node,
		journal: store,
		feed:    feed,
		owner:   owner,
		user:    newTestAddress(t),
	}
}

func marshalParam(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal param: %v", err)
	}
	return raw
}

// do posts a JSON-RPC request through the full HTTP handler.
func (env *testEnv) do(t *testing.T, method string, params interface{}, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	env.nextID++
	req := RPCRequest{JSONRPC: jsonRPCVersion, Method: method, ID: env.nextID}
	if params != nil {
		req.Params = []json.RawMessage{marshalParam(t, params)}
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if authorized {
		httpReq.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httpReq)
	return rec
}

// call performs an authorized request and fails the test on an RPC error.
func (env *testEnv) call(t *testing.T, method string, params interface{}, out interface{}) {
	t.Helper()
	rec := env.do(t, method, params, true)
	result, rpcErr := decodeRPCResponse(t, rec)
	if rpcErr != nil {
		t.Fatalf("%s: unexpected error %+v", method, rpcErr)
	}
	if out != nil {
		if err := json.Unmarshal(result, out); err != nil {
			t.Fatalf("%s: decode result: %v", method, err)
		}
	}
}

// callErr performs an authorized request and returns the RPC error.
func (env *testEnv) callErr(t *testing.T, method string, params interface{}) (*RPCError, int) {
	t.Helper()
	rec := env.do(t, method, params, true)
	_, rpcErr := decodeRPCResponse(t, rec)
	if rpcErr == nil {
		t.Fatalf("%s: expected error, got success", method)
	}
	return rpcErr, rec.Code
}

func decodeRPCResponse(t *testing.T, rec *httptest.ResponseRecorder) (json.RawMessage, *RPCError) {
	t.Helper()
	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Result, resp.Error
}

func idRange(from, to uint64) []uint64 {
	ids := make([]uint64, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}

// mintAndRate mints count NFTs to the test user, approves the vault and
// assigns a rarity score to every id in rated.
func (env *testEnv) mintAndRate(t *testing.T, count uint64, rated []uint64) {
	t.Helper()
	env.call(t, "nft_mint", nftMintParams{
		Caller: crypto.FormatAddress(env.owner),
		To:     crypto.FormatAddress(env.user),
		Count:  count,
	}, nil)
	env.call(t, "nft_setApprovalForAll", nftApprovalParams{
		Caller:   crypto.FormatAddress(env.user),
		Operator: crypto.FormatAddress(env.node.Vault()),
		Approved: true,
	}, nil)
	entries := make([]rarityEntryParam, len(rated))
	for i, id := range rated {
		entries[i] = rarityEntryParam{TokenID: id, Score: 277_489 + id*25_000}
	}
	env.call(t, "rarity_initialize", rarityInitializeParams{
		Caller:  crypto.FormatAddress(env.owner),
		Entries: entries,
	}, nil)
}

func (env *testEnv) rewardBalance(t *testing.T, addr [20]byte) *big.Int {
	t.Helper()
	var res balanceResult
	env.call(t, "token_balance", tokenBalanceParams{Symbol: "RWD", Address: crypto.FormatAddress(addr)}, &res)
	balance, ok := new(big.Int).SetString(res.Balance, 10)
	if !ok {
		t.Fatalf("invalid balance %q", res.Balance)
	}
	return balance
}
