package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/aidledger/internal/common"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("SOLANA_RPC_URL", "")
	t.Setenv("RELIEF_PROGRAM_ID", "")
}

func TestLoadLedgerConfig_Defaults(t *testing.T) {
	resetViper(t)
	programID := solana.NewWallet().PublicKey()
	viper.Set("ledger.program_id", programID.String())

	cfg, err := LoadLedgerConfig()
	require.NoError(t, err)

	assert.Equal(t, programID, cfg.ProgramID)
	assert.Equal(t, rpc.DevNet_RPC, cfg.RPCURL)
	assert.Equal(t, DefaultCommitment, cfg.Commitment)
	assert.Equal(t, DefaultConfirmTimeout, cfg.ConfirmTimeout)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, DefaultVerificationThreshold, cfg.VerificationThreshold)
	assert.InDelta(t, DefaultRequestsPerSecond, cfg.RequestsPerSecond, 0)
	assert.True(t, filepath.IsAbs(cfg.KeypairPath) || cfg.KeypairPath == DefaultKeypairPath)

	client := cfg.Client()
	assert.Equal(t, cfg.RPCURL, client.Endpoint)
	assert.Equal(t, cfg.Commitment, client.Commitment)
}

func TestLoadLedgerConfig_Precedence(t *testing.T) {
	resetViper(t)
	programID := solana.NewWallet().PublicKey()
	t.Setenv("RELIEF_PROGRAM_ID", programID.String())
	t.Setenv("SOLANA_RPC_URL", "http://env:8899")

	cfg, err := LoadLedgerConfig()
	require.NoError(t, err)
	assert.Equal(t, programID, cfg.ProgramID)
	assert.Equal(t, "http://env:8899", cfg.RPCURL)

	viper.Set("ledger.rpc_url", "http://viper:8899")
	viper.Set("cache.ttl", "0s")
	viper.Set("verification.threshold", 5)
	viper.Set("ledger.confirm_timeout", "10s")
	cfg, err = LoadLedgerConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://viper:8899", cfg.RPCURL)
	assert.Zero(t, cfg.CacheTTL)
	assert.Equal(t, 5, cfg.VerificationThreshold)
	assert.Equal(t, 10*time.Second, cfg.ConfirmTimeout)
}

func TestLoadLedgerConfig_Errors(t *testing.T) {
	tests := []struct {
		set     map[string]any
		wantErr error
		name    string
	}{
		{name: "missing program id", set: map[string]any{}, wantErr: common.ErrMissingConfig},
		{name: "bad program id", set: map[string]any{"ledger.program_id": "not-base58!"}, wantErr: common.ErrInvalidConfig},
		{name: "unknown cluster", set: map[string]any{"ledger.program_id": solana.NewWallet().PublicKey().String(), "ledger.cluster": "moon"}, wantErr: common.ErrInvalidConfig},
		{name: "bad commitment", set: map[string]any{"ledger.program_id": solana.NewWallet().PublicKey().String(), "ledger.commitment": "eventually"}, wantErr: common.ErrInvalidConfig},
		{name: "negative threshold", set: map[string]any{"ledger.program_id": solana.NewWallet().PublicKey().String(), "verification.threshold": -1}, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			for k, v := range tt.set {
				viper.Set(k, v)
			}
			_, err := LoadLedgerConfig()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClusterEndpoint(t *testing.T) {
	url, err := ClusterEndpoint("mainnet-beta")
	require.NoError(t, err)
	assert.Equal(t, rpc.MainNetBeta_RPC, url)

	_, err = ClusterEndpoint("")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("AIDCTL_TEST_DIR", "/srv/aid")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "keys/id.json"), ExpandPath("~/keys/id.json"))
	assert.Equal(t, "/srv/aid/db", ExpandPath("$AIDCTL_TEST_DIR/db"))
}

func TestLoadSheetsConfig(t *testing.T) {
	resetViper(t)
	for _, k := range []string{"SERVICE_ACCOUNT_PATH", "CLIENT_ID", "CLIENT_SECRET", "REFRESH_TOKEN", "SPREADSHEET_ID", "SPREADSHEET_NAME"} {
		t.Setenv("GOOGLE_SHEETS_"+k, "")
	}

	_, err := LoadSheetsConfig()
	assert.Error(t, err, "no credentials")

	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "env-id")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "env-secret")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "Env Report")
	viper.Set("sheets.refresh_token", "viper-token")
	viper.Set("sheets.client_id", "viper-id")

	cfg, err := LoadSheetsConfig()
	require.NoError(t, err)
	assert.Equal(t, "viper-id", cfg.ClientID)
	assert.Equal(t, "env-secret", cfg.ClientSecret)
	assert.Equal(t, "viper-token", cfg.RefreshToken)
	assert.Equal(t, "Env Report", cfg.SpreadsheetName)
}
