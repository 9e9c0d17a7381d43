package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/NethermindEth/notewise/client"
	"github.com/NethermindEth/notewise/db"
	"github.com/NethermindEth/notewise/db/pebble"
	"github.com/NethermindEth/notewise/devnet"
	"github.com/NethermindEth/notewise/store"
	"github.com/NethermindEth/notewise/utils"
	"github.com/NethermindEth/notewise/validator"
	"github.com/prometheus/client_golang/prometheus"
)

// Config is the top-level notewise configuration.
type Config struct {
	LogLevel       utils.LogLevel `mapstructure:"log-level" validate:"log_level"`
	Colour         bool           `mapstructure:"colour"`
	DatabasePath   string         `mapstructure:"db-path"`
	InclusionDelay time.Duration  `mapstructure:"inclusion-delay" validate:"min=0"`
	Metrics        bool           `mapstructure:"metrics"`
	MetricsHost    string         `mapstructure:"metrics-host"`
	MetricsPort    uint16         `mapstructure:"metrics-port"`

	Client client.Config `mapstructure:",squash"`
}

// Node wires a client to its local store and an in-process devnet.
type Node struct {
	cfg    *Config
	db     db.KeyValueStore
	store  *store.Store
	devnet *devnet.Node
	prover *devnet.Prover
	client *client.Client
	log    utils.Logger

	registry *prometheus.Registry
	metrics  *httpService
}

// New builds the node from cfg. An empty database path keeps all state in memory.
func New(cfg *Config) (*Node, error) {
	if err := validator.Validator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log, err := utils.NewZapLogger(cfg.LogLevel, cfg.Colour)
	if err != nil {
		return nil, err
	}

	n := &Node{cfg: cfg, log: log}
	if cfg.Metrics {
		n.registry = prometheus.NewRegistry()
	}

	if cfg.DatabasePath != "" {
		dbLog, err := utils.NewZapLogger(utils.ERROR, cfg.Colour)
		if err != nil {
			return nil, fmt.Errorf("create DB logger: %w", err)
		}
		database, err := pebble.New(cfg.DatabasePath, dbLog)
		if err != nil {
			return nil, fmt.Errorf("open DB: %w", err)
		}
		n.db = database
		if n.registry != nil {
			listener, err := makeDBMetrics(n.registry)
			if err != nil {
				return nil, errors.Join(err, database.Close())
			}
			n.db = database.WithListener(listener)
		}
	}

	if n.store, err = store.New(n.db); err != nil {
		return nil, errors.Join(fmt.Errorf("load store: %w", err), n.closeDB())
	}

	n.devnet = devnet.NewNode().WithLogger(log).WithInclusionDelay(cfg.InclusionDelay)
	n.prover = devnet.NewProver()
	n.client = client.New(n.store, devnet.NewExecutor(), n.prover, n.devnet).
		WithLogger(log).
		WithConfig(cfg.Client)

	if n.registry != nil {
		listener, err := client.NewMetricsListener(n.registry)
		if err != nil {
			return nil, errors.Join(err, n.closeDB())
		}
		n.client.WithListener(listener)

		addr := net.JoinHostPort(cfg.MetricsHost, strconv.FormatUint(uint64(cfg.MetricsPort), 10))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("listen on %s: %w", addr, err), n.closeDB())
		}
		n.metrics = makeMetrics(ln, n.registry)
		log.Infow("Metrics server listening", "addr", ln.Addr())
	}
	return n, nil
}

func (n *Node) Client() *client.Client {
	return n.client
}

func (n *Node) Devnet() *devnet.Node {
	return n.devnet
}

func (n *Node) Prover() *devnet.Prover {
	return n.prover
}

func (n *Node) Log() utils.Logger {
	return n.log
}

func (n *Node) Registry() *prometheus.Registry {
	return n.registry
}

// MetricsAddr is the address the metrics server listens on, nil when metrics are disabled.
func (n *Node) MetricsAddr() net.Addr {
	if n.metrics == nil {
		return nil
	}
	return n.metrics.listener.Addr()
}

func (n *Node) Config() Config {
	return *n.cfg
}

// Run executes fn with the client while the metrics server, if enabled, serves in the background.
// The database is closed once fn returns.
func (n *Node) Run(ctx context.Context, fn func(ctx context.Context, c *client.Client) error) error {
	defer func() {
		if closeErr := n.closeDB(); closeErr != nil {
			n.log.Errorw("Error while closing the DB", "err", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metricsErr := make(chan error, 1)
	if n.metrics != nil {
		go func() {
			metricsErr <- n.metrics.Run(ctx)
		}()
	}

	err := fn(ctx, n.client)
	cancel()
	if n.metrics != nil {
		if serveErr := <-metricsErr; serveErr != nil {
			n.log.Errorw("Metrics server error", "err", serveErr)
		}
	}
	return err
}

func (n *Node) closeDB() error {
	if n.db == nil {
		return nil
	}
	return n.db.Close()
}
