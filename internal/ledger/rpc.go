package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/aidledger/internal/common"
	"github.com/Veraticus/aidledger/internal/service"
	"github.com/Veraticus/aidledger/internal/txerror"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"
)

// ErrTransactionFailed is returned when a sent transaction lands with an error.
var ErrTransactionFailed = errors.New("transaction failed")

// Config holds RPC client settings.
type Config struct {
	Endpoint          string
	Commitment        string
	RequestsPerSecond float64
	ConfirmTimeout    time.Duration
	PollInterval      time.Duration
	Retry             service.RetryOptions
}

// RPCClient implements Client and ProgramAccountLister over JSON-RPC.
type RPCClient struct {
	rpc        *rpc.Client
	limiter    *rate.Limiter
	commitment rpc.CommitmentType
	signer     solana.PrivateKey
	retry      service.RetryOptions
	confirm    time.Duration
	poll       time.Duration
}

// NewRPCClient creates a client that signs with signer.
func NewRPCClient(cfg Config, signer solana.PrivateKey) (*RPCClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: ledger RPC endpoint", common.ErrMissingConfig)
	}
	if len(signer) == 0 {
		return nil, fmt.Errorf("%w: signing key", common.ErrMissingConfig)
	}
	if cfg.Commitment == "" {
		cfg.Commitment = string(rpc.CommitmentConfirmed)
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Retry.ShouldRetry == nil {
		cfg.Retry.ShouldRetry = retryableRead
	}

	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	return &RPCClient{
		rpc:        rpc.New(cfg.Endpoint),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		commitment: rpc.CommitmentType(cfg.Commitment),
		signer:     signer,
		retry:      cfg.Retry,
		confirm:    cfg.ConfirmTimeout,
		poll:       cfg.PollInterval,
	}, nil
}

// LoadKeypair reads a keygen-format JSON keypair file.
func LoadKeypair(path string) (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not read keypair %s", path), err)
	}
	return key, nil
}

func retryableRead(err error) bool {
	return common.IsRetryable(err) || txerror.IsRecoverable(err.Error())
}

// Wallet implements Client.Wallet.
func (c *RPCClient) Wallet() solana.PublicKey {
	return c.signer.PublicKey()
}

// FetchAccount implements Client.FetchAccount.
func (c *RPCClient) FetchAccount(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	var data []byte
	err := common.WithRetry(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		out, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
			Commitment: c.commitment,
			Encoding:   solana.EncodingBase64,
		})
		if errors.Is(err, rpc.ErrNotFound) {
			data = nil
			return nil
		}
		if err != nil {
			return err
		}
		if out == nil || out.Value == nil {
			data = nil
			return nil
		}
		data = out.Value.Data.GetBinary()
		return nil
	}, c.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account %s: %w", address, err)
	}
	return data, nil
}

// ListProgramAccounts implements ProgramAccountLister.
func (c *RPCClient) ListProgramAccounts(ctx context.Context, programID solana.PublicKey, filters ...Memcmp) ([]Account, error) {
	opts := &rpc.GetProgramAccountsOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
	}
	for _, f := range filters {
		opts.Filters = append(opts.Filters, rpc.RPCFilter{
			Memcmp: &rpc.RPCFilterMemcmp{Offset: f.Offset, Bytes: solana.Base58(f.Bytes)},
		})
	}

	var accounts []Account
	err := common.WithRetry(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		out, err := c.rpc.GetProgramAccountsWithOpts(ctx, programID, opts)
		if err != nil {
			return err
		}
		accounts = make([]Account, 0, len(out))
		for _, ka := range out {
			if ka == nil || ka.Account == nil {
				continue
			}
			accounts = append(accounts, Account{Address: ka.Pubkey, Data: ka.Account.Data.GetBinary()})
		}
		return nil
	}, c.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts of %s: %w", programID, err)
	}
	return accounts, nil
}

// SendInstruction implements Client.SendInstruction.
func (c *RPCClient) SendInstruction(ctx context.Context, programID solana.PublicKey, accounts []*solana.AccountMeta, data []byte) (solana.Signature, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return solana.Signature{}, err
	}

	recent, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	payer := c.signer.PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(programID, accounts, data)},
		recent.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &c.signer
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, err
	}

	slog.Debug("Transaction sent, awaiting confirmation", "signature", sig.String())
	if err := c.awaitConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

func (c *RPCClient) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, c.confirm)
	defer cancel()

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
		if err == nil && out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
			}
			if reached(status.ConfirmationStatus, c.commitment) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation of %s timed out: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

func reached(got rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch got {
	case rpc.ConfirmationStatusFinalized:
		return true
	case rpc.ConfirmationStatusConfirmed:
		return want != rpc.CommitmentFinalized
	case rpc.ConfirmationStatusProcessed:
		return want == rpc.CommitmentProcessed
	}
	return false
}

var (
	_ Client               = (*RPCClient)(nil)
	_ ProgramAccountLister = (*RPCClient)(nil)
)
