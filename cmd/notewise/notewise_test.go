package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NethermindEth/notewise/client"
	notewise "github.com/NethermindEth/notewise/cmd/notewise"
	"github.com/NethermindEth/notewise/node"
	"github.com/NethermindEth/notewise/protocol"
	"github.com/NethermindEth/notewise/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyNode struct {
	cfg *node.Config
}

func (s *spyNode) newNode(cfg *node.Config) (*node.Node, error) {
	s.cfg = cfg
	return node.New(cfg)
}

func defaultConfig() *node.Config {
	return &node.Config{
		LogLevel:    utils.INFO,
		Colour:      true,
		MetricsHost: "localhost",
		MetricsPort: 9090,
		Client:      client.DefaultConfig(),
	}
}

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func execute(t *testing.T, newNodeFn notewise.NewNodeFn, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	cmd := notewise.NewCmd(newNodeFn)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigPrecedence(t *testing.T) {
	dbPath := t.TempDir()
	tests := map[string]struct {
		cfgFileContents string
		inputArgs       []string
		expectErr       bool
		expectedConfig  func(cfg *node.Config)
	}{
		"default config with no flags": {
			expectedConfig: func(*node.Config) {},
		},
		"config file doesn't exist": {
			inputArgs: []string{"--config", "config-file-test.yaml"},
			expectErr: true,
		},
		"config file with some settings but without any other flags": {
			cfgFileContents: `log-level: error
poll-interval: 5ms
poll-max-attempts: 7
inclusion-delay: 2ms
`,
			expectedConfig: func(cfg *node.Config) {
				cfg.LogLevel = utils.ERROR
				cfg.Client.PollInterval = 5 * time.Millisecond
				cfg.Client.MaxPollAttempts = 7
				cfg.InclusionDelay = 2 * time.Millisecond
			},
		},
		"some flags without config file": {
			inputArgs: []string{"--log-level", "warn", "--db-path", dbPath, "--proving-retries", "1", "--colour=false"},
			expectedConfig: func(cfg *node.Config) {
				cfg.LogLevel = utils.WARN
				cfg.DatabasePath = dbPath
				cfg.Client.ProvingRetries = 1
				cfg.Colour = false
			},
		},
		"some setting set in both config file and flags": {
			cfgFileContents: `log-level: debug
seed-attempts: 100000
max-concurrent-proofs: 2
`,
			inputArgs: []string{"--log-level", "error", "--metrics-port", "9191"},
			expectedConfig: func(cfg *node.Config) {
				cfg.LogLevel = utils.ERROR
				cfg.MetricsPort = 9191
				cfg.Client.SeedAttempts = 100000
				cfg.Client.MaxConcurrentProofs = 2
			},
		},
		"invalid config": {
			inputArgs: []string{"--poll-max-attempts", "0"},
			expectErr: true,
		},
		"unknown log level": {
			inputArgs: []string{"--log-level", "loud"},
			expectErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			args := append([]string{"accounts"}, tc.inputArgs...)
			if tc.cfgFileContents != "" {
				args = append(args, "--config", writeFile(t, "notewise.yaml", tc.cfgFileContents))
			}

			spy := new(spyNode)
			_, err := execute(t, spy.newNode, args...)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			expected := defaultConfig()
			tc.expectedConfig(expected)
			assert.Equal(t, expected, spy.cfg)
		})
	}
}

func TestCounterCmd(t *testing.T) {
	out, err := execute(t, node.New, "counter", "--increments", "3", "--poll-interval", "1ms", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "value: 3")
}

func TestMintConsumeCmd(t *testing.T) {
	out, err := execute(t, node.New, "mint-consume", "--notes", "3", "--amount", "50", "--symbol", "TST",
		"--poll-interval", "1ms", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "balance: 150 TST")

	_, err = execute(t, node.New, "mint-consume", "--symbol", "lower", "--log-level", "error")
	require.Error(t, err)
}

func TestTransferCmd(t *testing.T) {
	dbPath := t.TempDir()
	out, err := execute(t, node.New, "transfer", "--notes", "2", "--amount", "30", "--targets", "3",
		"--private", "--db-path", dbPath, "--poll-interval", "1ms", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "pays 20 to"))
	assert.Contains(t, out, "balance: 0 POL")

	out, err = execute(t, node.New, "accounts", "--db-path", dbPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "issued=60/1000000")
	assert.Contains(t, out, "wallet ")
}

func TestCompileCmd(t *testing.T) {
	lib := writeFile(t, "wallet.masm", protocol.WalletSource)
	tx := writeFile(t, "tx.masm", "begin call.wallet::send_asset end")

	out, err := execute(t, node.New, "compile", "--kind", "account", lib)
	require.NoError(t, err)
	assert.Contains(t, out, "account code root: 0x")
	assert.Contains(t, out, "send_asset")

	out, err = execute(t, node.New, "compile", "--lib", "wallet="+lib, tx)
	require.NoError(t, err)
	assert.Contains(t, out, "transaction script root: 0x")

	_, err = execute(t, node.New, "compile", "--kind", "library", tx)
	require.Error(t, err)

	_, err = execute(t, node.New, "compile", tx)
	require.Error(t, err)
}

func TestRenderCmd(t *testing.T) {
	out, err := execute(t, node.New, "render", "begin call.{proc} end", "--bind", "proc=0xabc")
	require.NoError(t, err)
	assert.Equal(t, "begin call.0xabc end\n", out)

	_, err = execute(t, node.New, "render", "begin call.{proc} end")
	require.Error(t, err)
}
