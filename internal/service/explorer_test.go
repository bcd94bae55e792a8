package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/purvik6062/nitro-explorer/internal/config"
	"github.com/purvik6062/nitro-explorer/internal/connector"
	"github.com/purvik6062/nitro-explorer/internal/model"
	"go.uber.org/zap/zaptest"
)

func txHash(block uint64, i int) string {
	return fmt.Sprintf("0x%064x", block*100+uint64(i))
}

// reverseGate lets call i return only after call i+1 has returned, so
// calls complete in strictly reverse order of keys.
type reverseGate struct {
	index map[string]int
	done  []chan struct{}

	mu        sync.Mutex
	completed []string
}

func newReverseGate(keys []string) *reverseGate {
	g := &reverseGate{index: make(map[string]int, len(keys)), done: make([]chan struct{}, len(keys))}
	for i, key := range keys {
		g.index[key] = i
		g.done[i] = make(chan struct{})
	}
	return g
}

func (g *reverseGate) wait(ctx context.Context, key string) error {
	if g == nil {
		return nil
	}
	i, ok := g.index[key]
	if !ok {
		return nil
	}
	if i+1 < len(g.done) {
		select {
		case <-g.done[i+1]:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	g.mu.Lock()
	g.completed = append(g.completed, key)
	g.mu.Unlock()
	close(g.done[i])
	return nil
}

func (g *reverseGate) order() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.completed...)
}

func blockKey(number uint64) string {
	return fmt.Sprintf("%d", number)
}

// pageTxHashes lists the full transaction hashes of the given blocks in
// page order, as fakeChain generates them.
func pageTxHashes(numbers []uint64) []string {
	var hashes []string
	for _, n := range numbers {
		for i := 0; i < int(n%3); i++ {
			hashes = append(hashes, txHash(n, i))
		}
	}
	return hashes
}

// fakeChain generates block n with n%3 full transactions. Blocks listed in
// bare get an extra hash-only entry. When hold is set, block fetches not
// listed in blockErr wait for hold or for their context.
type fakeChain struct {
	mu   sync.Mutex
	head uint64

	headErr    error
	blockErr   map[uint64]error
	receiptErr map[string]error
	bare       map[uint64]bool

	hold        chan struct{}
	blockGate   *reverseGate
	receiptGate *reverseGate

	headCalls     atomic.Int32
	blockCalls    atomic.Int32
	receiptCalls  atomic.Int32
	cancelledCall atomic.Int32
}

func newFakeChain(head uint64) *fakeChain {
	return &fakeChain{
		head:       head,
		blockErr:   map[uint64]error{},
		receiptErr: map[string]error{},
		bare:       map[uint64]bool{},
	}
}

func (f *fakeChain) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	f.headCalls.Add(1)
	if f.headErr != nil {
		return 0, f.headErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, nil
}

func (f *fakeChain) GetBlockByNumber(ctx context.Context, number uint64, includeTransactions bool) (*model.Block, error) {
	f.blockCalls.Add(1)
	if err := f.blockErr[number]; err != nil {
		return nil, err
	}
	if !includeTransactions {
		return nil, errors.New("page fetch must request full transactions")
	}
	if f.hold != nil {
		select {
		case <-f.hold:
		case <-ctx.Done():
			f.cancelledCall.Add(1)
			return nil, ctx.Err()
		}
	}
	if err := f.blockGate.wait(ctx, blockKey(number)); err != nil {
		return nil, err
	}

	block := &model.Block{
		Number:    number,
		Hash:      fmt.Sprintf("0x%064x", number+1_000_000),
		Timestamp: time.Unix(int64(1_700_000_000+number), 0).UTC(),
	}
	for i := 0; i < int(number%3); i++ {
		h := txHash(number, i)
		block.Transactions = append(block.Transactions, model.BlockTransaction{
			Hash: h,
			Tx:   &model.Transaction{Hash: h, BlockNumber: number, Index: uint64(i), Value: big.NewInt(int64(i))},
		})
	}
	if f.bare[number] {
		block.Transactions = append(block.Transactions, model.BlockTransaction{Hash: txHash(number, 99)})
	}
	return block, nil
}

func (f *fakeChain) GetTransactionReceipt(ctx context.Context, hash string) (*model.Receipt, error) {
	f.receiptCalls.Add(1)
	if err := f.receiptErr[hash]; err != nil {
		return nil, err
	}
	if err := f.receiptGate.wait(ctx, hash); err != nil {
		return nil, err
	}
	return &model.Receipt{TransactionHash: hash, Status: true}, nil
}

func (f *fakeChain) GetTransactionByHash(ctx context.Context, hash string) (*model.Transaction, error) {
	if err := f.receiptErr[hash]; err != nil {
		return nil, err
	}
	return &model.Transaction{Hash: hash}, nil
}

func (f *fakeChain) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return big.NewInt(42), nil
}

func (f *fakeChain) GetNonce(ctx context.Context, address string) (uint64, error) {
	if f.headErr != nil {
		return 0, f.headErr
	}
	return 3, nil
}

func newTestExplorer(t *testing.T, chain *fakeChain) *ExplorerService {
	t.Helper()
	return NewExplorerService(chain, &config.ExplorerConfig{PageSize: DefaultPageSize}, zaptest.NewLogger(t))
}

func assertBlockNumbers(t *testing.T, page *model.Page, from, to uint64) {
	t.Helper()
	want := descending(from, to)
	if len(page.Blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d", len(page.Blocks), len(want))
	}
	for i, block := range page.Blocks {
		if block.Number != want[i] {
			t.Fatalf("Blocks[%d].Number = %d, want %d", i, block.Number, want[i])
		}
	}
}

func assertReceiptsMatch(t *testing.T, page *model.Page) {
	t.Helper()
	seen := 0
	for _, block := range page.Blocks {
		for _, hash := range block.TransactionHashes() {
			receipt, ok := page.Receipts[hash]
			if !ok {
				t.Fatalf("missing receipt for %s", hash)
			}
			if receipt.TransactionHash != hash {
				t.Fatalf("receipt for %s carries hash %s", hash, receipt.TransactionHash)
			}
			seen++
		}
	}
	if seen != len(page.Receipts) {
		t.Fatalf("page has %d receipts for %d transactions", len(page.Receipts), seen)
	}
}

func TestFetchPageFirstPage(t *testing.T) {
	chain := newFakeChain(105)
	explorer := newTestExplorer(t, chain)

	page, err := explorer.FetchPage(context.Background(), 0, 20)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	assertBlockNumbers(t, page, 105, 86)
	assertReceiptsMatch(t, page)
	if page.Head != 105 || page.Index != 0 || page.Size != 20 {
		t.Errorf("page header = %d/%d/%d", page.Head, page.Index, page.Size)
	}
	if !page.HasNext() {
		t.Error("HasNext() = false, want true")
	}
	if got := int(chain.receiptCalls.Load()); got != page.TransactionCount() {
		t.Errorf("receipt calls = %d, want %d", got, page.TransactionCount())
	}
}

func TestFetchPageClampedAtGenesis(t *testing.T) {
	chain := newFakeChain(15)
	explorer := newTestExplorer(t, chain)

	page, err := explorer.FetchPage(context.Background(), 0, 20)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	assertBlockNumbers(t, page, 15, 0)
	assertReceiptsMatch(t, page)
	if page.HasNext() {
		t.Error("HasNext() = true at genesis")
	}
}

func TestFetchPagePastGenesis(t *testing.T) {
	chain := newFakeChain(15)
	explorer := newTestExplorer(t, chain)

	page, err := explorer.FetchPage(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	if len(page.Blocks) != 0 || len(page.Receipts) != 0 {
		t.Errorf("got %d blocks and %d receipts, want none", len(page.Blocks), len(page.Receipts))
	}
	if chain.blockCalls.Load() != 0 || chain.receiptCalls.Load() != 0 {
		t.Errorf("issued %d block and %d receipt calls for an empty page", chain.blockCalls.Load(), chain.receiptCalls.Load())
	}
}

func TestFetchPageLaterPage(t *testing.T) {
	explorer := newTestExplorer(t, newFakeChain(105))

	page, err := explorer.FetchPage(context.Background(), 5, 20)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	assertBlockNumbers(t, page, 5, 0)
}

func TestFetchPageDefaultSize(t *testing.T) {
	chain := newFakeChain(100)
	explorer := NewExplorerService(chain, &config.ExplorerConfig{PageSize: 5}, zaptest.NewLogger(t))

	page, err := explorer.FetchPage(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if page.Size != 5 {
		t.Errorf("Size = %d, want 5", page.Size)
	}
	assertBlockNumbers(t, page, 95, 91)
}

func TestFetchPageInvalidIndex(t *testing.T) {
	chain := newFakeChain(100)
	explorer := newTestExplorer(t, chain)

	_, err := explorer.FetchPage(context.Background(), -1, 20)
	if !errors.Is(err, ErrInvalidPage) {
		t.Errorf("error = %v, want ErrInvalidPage", err)
	}
	if chain.headCalls.Load() != 0 {
		t.Error("head was fetched for an invalid page")
	}
}

func TestFetchPageHeadFailure(t *testing.T) {
	chain := newFakeChain(100)
	chain.headErr = errors.New("connection refused")
	explorer := newTestExplorer(t, chain)

	_, err := explorer.FetchPage(context.Background(), 0, 20)

	var rpcErr *connector.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error = %v, want RPCError", err)
	}
	if !errors.Is(err, chain.headErr) {
		t.Errorf("error %v does not wrap the client error", err)
	}
	if chain.blockCalls.Load() != 0 || chain.receiptCalls.Load() != 0 {
		t.Errorf("issued %d block and %d receipt calls after head failure", chain.blockCalls.Load(), chain.receiptCalls.Load())
	}
}

func TestFetchPageBlockFailure(t *testing.T) {
	chain := newFakeChain(100)
	chain.blockErr[93] = errors.New("request timeout")
	explorer := newTestExplorer(t, chain)

	page, err := explorer.FetchPage(context.Background(), 0, 20)
	if page != nil {
		t.Error("partial page returned on block failure")
	}

	var rpcErr *connector.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error = %v, want RPCError", err)
	}
	if chain.receiptCalls.Load() != 0 {
		t.Errorf("issued %d receipt calls after block failure", chain.receiptCalls.Load())
	}
}

func TestFetchPageReceiptFailure(t *testing.T) {
	chain := newFakeChain(100)
	chain.receiptErr[txHash(98, 1)] = errors.New("malformed response")
	explorer := newTestExplorer(t, chain)

	page, err := explorer.FetchPage(context.Background(), 0, 20)
	if page != nil {
		t.Error("partial page returned on receipt failure")
	}

	var rpcErr *connector.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error = %v, want RPCError", err)
	}
}

func TestFetchPageKeepsRPCErrorOp(t *testing.T) {
	chain := newFakeChain(100)
	chain.blockErr[100] = &connector.RPCError{Op: "eth_getBlockByNumber", Err: ethereum.NotFound}
	explorer := newTestExplorer(t, chain)

	_, err := explorer.FetchPage(context.Background(), 0, 20)
	if !connector.IsNotFound(err) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestFetchPageSkipsBareHashes(t *testing.T) {
	chain := newFakeChain(40)
	chain.bare[40] = true
	chain.bare[38] = true
	explorer := newTestExplorer(t, chain)

	page, err := explorer.FetchPage(context.Background(), 0, 5)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	if _, ok := page.Receipts[txHash(40, 99)]; ok {
		t.Error("receipt fetched for a bare-hash entry")
	}
	assertReceiptsMatch(t, page)
	if got := int(chain.receiptCalls.Load()); got != page.TransactionCount() {
		t.Errorf("receipt calls = %d, want %d", got, page.TransactionCount())
	}
}

func TestFetchPageIdempotent(t *testing.T) {
	chain := newFakeChain(57)
	explorer := newTestExplorer(t, chain)

	first, err := explorer.FetchPage(context.Background(), 0, 20)
	if err != nil {
		t.Fatalf("first FetchPage() error = %v", err)
	}
	second, err := explorer.FetchPage(context.Background(), 0, 20)
	if err != nil {
		t.Fatalf("second FetchPage() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated FetchPage returned different data")
	}
	if chain.headCalls.Load() != 2 {
		t.Errorf("head calls = %d, want 2", chain.headCalls.Load())
	}
}

func TestFetchPageFollowsMovingHead(t *testing.T) {
	chain := newFakeChain(50)
	explorer := newTestExplorer(t, chain)

	if _, err := explorer.FetchPage(context.Background(), 1, 20); err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	chain.mu.Lock()
	chain.head = 53
	chain.mu.Unlock()

	page, err := explorer.FetchPage(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	assertBlockNumbers(t, page, 33, 14)
}

func TestFetchPageReverseCompletion(t *testing.T) {
	numbers := descending(30, 21)
	keys := make([]string, len(numbers))
	for i, n := range numbers {
		keys[i] = blockKey(n)
	}
	hashes := pageTxHashes(numbers)

	chain := newFakeChain(30)
	chain.blockGate = newReverseGate(keys)
	chain.receiptGate = newReverseGate(hashes)
	explorer := newTestExplorer(t, chain)

	page, err := explorer.FetchPage(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	assertBlockNumbers(t, page, 30, 21)
	assertReceiptsMatch(t, page)

	for name, gate := range map[string]*reverseGate{"block": chain.blockGate, "receipt": chain.receiptGate} {
		order := gate.order()
		want := keys
		if name == "receipt" {
			want = hashes
		}
		if len(order) != len(want) {
			t.Fatalf("%s calls completed = %d, want %d", name, len(order), len(want))
		}
		for i := range order {
			if order[i] != want[len(want)-1-i] {
				t.Fatalf("%s completion order = %v, want reverse of %v", name, order, want)
			}
		}
	}
}

func waitForCalls(t *testing.T, counter *atomic.Int32, n int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for counter.Load() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d calls, got %d", n, counter.Load())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestFetchPageCallerCancel(t *testing.T) {
	chain := newFakeChain(50)
	chain.hold = make(chan struct{})
	explorer := newTestExplorer(t, chain)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		_, err := explorer.FetchPage(ctx, 0, 20)
		errc <- err
	}()

	waitForCalls(t, &chain.blockCalls, 20)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("FetchPage did not return after cancel")
	}
	if got := chain.cancelledCall.Load(); got != 20 {
		t.Errorf("cancelled block calls = %d, want 20", got)
	}
	if chain.receiptCalls.Load() != 0 {
		t.Errorf("issued %d receipt calls after cancel", chain.receiptCalls.Load())
	}
}

func TestFetchPageFailureCancelsSiblings(t *testing.T) {
	failure := errors.New("request timeout")
	chain := newFakeChain(50)
	chain.hold = make(chan struct{})
	chain.blockErr[40] = failure
	explorer := newTestExplorer(t, chain)

	errc := make(chan error, 1)
	go func() {
		_, err := explorer.FetchPage(context.Background(), 0, 20)
		errc <- err
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, failure) {
			t.Errorf("error = %v, want the failing block's error", err)
		}
		var rpcErr *connector.RPCError
		if !errors.As(err, &rpcErr) {
			t.Errorf("error = %v, want RPCError", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("FetchPage did not return after a block failure")
	}
	if got := chain.cancelledCall.Load(); got != 19 {
		t.Errorf("cancelled sibling calls = %d, want 19", got)
	}
}

func TestGetTransaction(t *testing.T) {
	chain := newFakeChain(10)
	explorer := newTestExplorer(t, chain)
	hash := txHash(5, 1)

	details, err := explorer.GetTransaction(context.Background(), hash)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if details.Transaction.Hash != hash || details.Receipt.TransactionHash != hash {
		t.Errorf("details = %+v", details)
	}

	for _, bad := range []string{"", "0x1234", "nothex", "0x" + strings.Repeat("zz", 32)} {
		if _, err := explorer.GetTransaction(context.Background(), bad); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("GetTransaction(%q) error = %v, want ErrInvalidHash", bad, err)
		}
	}

	chain.receiptErr[hash] = errors.New("boom")
	_, err = explorer.GetTransaction(context.Background(), hash)
	var rpcErr *connector.RPCError
	if !errors.As(err, &rpcErr) {
		t.Errorf("error = %v, want RPCError", err)
	}
}

func TestGetAccount(t *testing.T) {
	chain := newFakeChain(10)
	explorer := newTestExplorer(t, chain)

	account, err := explorer.GetAccount(context.Background(), "0x3f1eae7d46d88f08fc2f8ed27fcb2ab183eb2d0e")
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if account.Address != "0x3f1Eae7D46d88F08fc2F8ed27FCb2AB183EB2d0E" {
		t.Errorf("Address = %s, want checksummed form", account.Address)
	}
	if account.Balance.Int64() != 42 || account.Nonce != 3 {
		t.Errorf("account = %+v", account)
	}

	if _, err := explorer.GetAccount(context.Background(), "0xnope"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("error = %v, want ErrInvalidAddress", err)
	}

	chain.headErr = errors.New("connection refused")
	_, err = explorer.GetAccount(context.Background(), "0x3f1eae7d46d88f08fc2f8ed27fcb2ab183eb2d0e")
	var rpcErr *connector.RPCError
	if !errors.As(err, &rpcErr) {
		t.Errorf("error = %v, want RPCError", err)
	}
}

func TestDevAccount(t *testing.T) {
	explorer := newTestExplorer(t, newFakeChain(10))

	address, err := explorer.DevAccountAddress()
	if err != nil {
		t.Fatalf("DevAccountAddress() error = %v", err)
	}
	if !strings.EqualFold(address, "0x3f1Eae7D46d88F08fc2F8ed27FCb2AB183EB2d0E") {
		t.Errorf("address = %s", address)
	}

	account, err := explorer.DevAccount(context.Background())
	if err != nil {
		t.Fatalf("DevAccount() error = %v", err)
	}
	if account.Address != address {
		t.Errorf("account.Address = %s, want %s", account.Address, address)
	}

	bad := NewExplorerService(newFakeChain(10), &config.ExplorerConfig{DevAccountKey: "0x1234"}, zaptest.NewLogger(t))
	if _, err := bad.DevAccount(context.Background()); err == nil {
		t.Error("DevAccount() with invalid key error = nil")
	}
}

func TestPing(t *testing.T) {
	chain := newFakeChain(77)
	explorer := newTestExplorer(t, chain)

	head, err := explorer.Ping(context.Background())
	if err != nil || head != 77 {
		t.Errorf("Ping() = %d, %v", head, err)
	}

	chain.headErr = errors.New("down")
	if _, err := explorer.Ping(context.Background()); err == nil {
		t.Error("Ping() error = nil with node down")
	}
}
