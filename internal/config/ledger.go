package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Veraticus/aidledger/internal/common"
	"github.com/Veraticus/aidledger/internal/ledger"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"
)

// Defaults applied when neither viper nor the environment set a value.
const (
	DefaultCluster               = "devnet"
	DefaultCommitment            = "confirmed"
	DefaultKeypairPath           = "~/.config/solana/id.json"
	DefaultDatabasePath          = "~/.local/share/aidctl/aidctl.db"
	DefaultRequestsPerSecond     = 10
	DefaultConfirmTimeout        = 60 * time.Second
	DefaultCacheTTL              = 30 * time.Second
	DefaultVerificationThreshold = 3
)

// LedgerConfig holds everything needed to talk to the relief program.
type LedgerConfig struct {
	RPCURL                string
	Cluster               string
	Commitment            string
	KeypairPath           string
	DatabasePath          string
	MetricsAddr           string
	RequestsPerSecond     float64
	ConfirmTimeout        time.Duration
	CacheTTL              time.Duration
	VerificationThreshold int
	ProgramID             solana.PublicKey
}

// LoadLedgerConfig reads ledger settings from viper, then the SOLANA_RPC_URL
// and RELIEF_PROGRAM_ID environment variables, then defaults.
func LoadLedgerConfig() (*LedgerConfig, error) {
	cfg := &LedgerConfig{
		Cluster:               stringOr(viper.GetString("ledger.cluster"), DefaultCluster),
		Commitment:            stringOr(viper.GetString("ledger.commitment"), DefaultCommitment),
		KeypairPath:           ExpandPath(stringOr(viper.GetString("ledger.keypair_path"), DefaultKeypairPath)),
		DatabasePath:          ExpandPath(stringOr(viper.GetString("database.path"), DefaultDatabasePath)),
		MetricsAddr:           viper.GetString("metrics.addr"),
		RequestsPerSecond:     viper.GetFloat64("ledger.requests_per_second"),
		ConfirmTimeout:        viper.GetDuration("ledger.confirm_timeout"),
		CacheTTL:              DefaultCacheTTL,
		VerificationThreshold: viper.GetInt("verification.threshold"),
	}

	if viper.IsSet("cache.ttl") {
		cfg.CacheTTL = viper.GetDuration("cache.ttl")
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = DefaultConfirmTimeout
	}
	if cfg.VerificationThreshold == 0 {
		cfg.VerificationThreshold = DefaultVerificationThreshold
	}

	cfg.RPCURL = viper.GetString("ledger.rpc_url")
	if cfg.RPCURL == "" {
		cfg.RPCURL = os.Getenv("SOLANA_RPC_URL")
	}
	if cfg.RPCURL == "" {
		url, err := ClusterEndpoint(cfg.Cluster)
		if err != nil {
			return nil, err
		}
		cfg.RPCURL = url
	}

	programID := viper.GetString("ledger.program_id")
	if programID == "" {
		programID = os.Getenv("RELIEF_PROGRAM_ID")
	}
	if programID == "" {
		return nil, fmt.Errorf("%w: ledger.program_id", common.ErrMissingConfig)
	}
	id, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger.program_id: %w", common.ErrInvalidConfig, err)
	}
	cfg.ProgramID = id

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *LedgerConfig) Validate() error {
	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("%w: unknown commitment %q", common.ErrInvalidConfig, c.Commitment)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests per second cannot be negative", common.ErrInvalidConfig)
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("%w: confirm timeout must be positive", common.ErrInvalidConfig)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: cache ttl cannot be negative", common.ErrInvalidConfig)
	}
	if c.VerificationThreshold < 1 {
		return fmt.Errorf("%w: verification threshold must be at least 1", common.ErrInvalidConfig)
	}
	if c.ProgramID.IsZero() {
		return fmt.Errorf("%w: ledger.program_id", common.ErrMissingConfig)
	}
	return nil
}

// Client returns the RPC client settings.
func (c *LedgerConfig) Client() ledger.Config {
	return ledger.Config{
		Endpoint:          c.RPCURL,
		Commitment:        c.Commitment,
		RequestsPerSecond: c.RequestsPerSecond,
		ConfirmTimeout:    c.ConfirmTimeout,
	}
}

// ClusterEndpoint maps a cluster name to its public RPC endpoint.
func ClusterEndpoint(cluster string) (string, error) {
	switch cluster {
	case "devnet":
		return rpc.DevNet_RPC, nil
	case "testnet":
		return rpc.TestNet_RPC, nil
	case "mainnet-beta":
		return rpc.MainNetBeta_RPC, nil
	case "localnet":
		return rpc.LocalNet_RPC, nil
	default:
		return "", fmt.Errorf("%w: unknown cluster %q", common.ErrInvalidConfig, cluster)
	}
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
