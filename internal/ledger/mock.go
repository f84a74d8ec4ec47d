package ledger

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// MockClient is a mock implementation of Client for testing.
type MockClient struct {
	// Functions that can be set by tests to control behavior
	SendInstructionFn     func(ctx context.Context, programID solana.PublicKey, accounts []*solana.AccountMeta, data []byte) (solana.Signature, error)
	FetchAccountFn        func(ctx context.Context, address solana.PublicKey) ([]byte, error)
	ListProgramAccountsFn func(ctx context.Context, programID solana.PublicKey, filters ...Memcmp) ([]Account, error)

	// Accounts backs FetchAccount when FetchAccountFn is nil.
	Accounts map[solana.PublicKey][]byte

	// Call tracking
	SendCalls  []SendCall
	FetchCalls []solana.PublicKey
	ListCalls  int

	WalletKey solana.PublicKey
	mu        sync.Mutex
}

// SendCall records the parameters of a SendInstruction call.
type SendCall struct {
	Data      []byte
	Accounts  []*solana.AccountMeta
	ProgramID solana.PublicKey
}

// NewMockClient creates a new mock ledger client.
func NewMockClient() *MockClient {
	return &MockClient{
		Accounts:  make(map[solana.PublicKey][]byte),
		WalletKey: solana.NewWallet().PublicKey(),
	}
}

// SendInstruction implements Client.SendInstruction.
func (m *MockClient) SendInstruction(ctx context.Context, programID solana.PublicKey, accounts []*solana.AccountMeta, data []byte) (solana.Signature, error) {
	m.mu.Lock()
	m.SendCalls = append(m.SendCalls, SendCall{ProgramID: programID, Accounts: accounts, Data: data})
	m.mu.Unlock()

	if m.SendInstructionFn != nil {
		return m.SendInstructionFn(ctx, programID, accounts, data)
	}

	// Default behavior: a fixed non-zero signature
	var sig solana.Signature
	sig[0] = 1
	return sig, nil
}

// FetchAccount implements Client.FetchAccount.
func (m *MockClient) FetchAccount(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	m.mu.Lock()
	m.FetchCalls = append(m.FetchCalls, address)
	data, ok := m.Accounts[address]
	m.mu.Unlock()

	if m.FetchAccountFn != nil {
		return m.FetchAccountFn(ctx, address)
	}
	if !ok {
		return nil, nil
	}
	return data, nil
}

// ListProgramAccounts implements ProgramAccountLister.
func (m *MockClient) ListProgramAccounts(ctx context.Context, programID solana.PublicKey, filters ...Memcmp) ([]Account, error) {
	m.mu.Lock()
	m.ListCalls++
	m.mu.Unlock()

	if m.ListProgramAccountsFn != nil {
		return m.ListProgramAccountsFn(ctx, programID, filters...)
	}

	// Default behavior: filter the Accounts map
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Account
	for addr, data := range m.Accounts {
		if matches(data, filters) {
			out = append(out, Account{Address: addr, Data: data})
		}
	}
	return out, nil
}

func matches(data []byte, filters []Memcmp) bool {
	for _, f := range filters {
		end := f.Offset + uint64(len(f.Bytes))
		if end > uint64(len(data)) {
			return false
		}
		if string(data[f.Offset:end]) != string(f.Bytes) {
			return false
		}
	}
	return true
}

// Wallet implements Client.Wallet.
func (m *MockClient) Wallet() solana.PublicKey {
	return m.WalletKey
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendCalls = nil
	m.FetchCalls = nil
	m.ListCalls = 0
}

// Ensure MockClient implements the ledger interfaces.
var (
	_ Client               = (*MockClient)(nil)
	_ ProgramAccountLister = (*MockClient)(nil)
)
