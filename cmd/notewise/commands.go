package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/NethermindEth/notewise/client"
	"github.com/NethermindEth/notewise/compiler"
	"github.com/NethermindEth/notewise/core/address"
	"github.com/NethermindEth/notewise/core/asset"
	"github.com/NethermindEth/notewise/core/note"
	"github.com/NethermindEth/notewise/node"
	"github.com/NethermindEth/notewise/protocol"
	"github.com/NethermindEth/notewise/script"
	"github.com/NethermindEth/notewise/validator"
	"github.com/spf13/cobra"
)

const (
	incrementsF = "increments"
	notesF      = "notes"
	amountF     = "amount"
	symbolF     = "symbol"
	decimalsF   = "decimals"
	maxSupplyF  = "max-supply"
	privateF    = "private"
	targetsF    = "targets"
	kindF       = "kind"
	libF        = "lib"
	bindF       = "bind"
)

type withNodeFn func(run func(cmd *cobra.Command, args []string, n *node.Node) error) func(*cobra.Command, []string) error

type faucetOptions struct {
	Symbol    string              `validate:"required,max=6,uppercase"`
	Decimals  uint8               `validate:"max=12"`
	MaxSupply uint64              `validate:"gt=0"`
	Notes     int                 `validate:"min=1"`
	Amount    uint64              `validate:"gt=0"`
	Mode      address.StorageMode `validate:"storage_mode"`
}

func (o *faucetOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Symbol, symbolF, "POL", "Token symbol of the faucet.")
	cmd.Flags().Uint8Var(&o.Decimals, decimalsF, 8, "Token decimals of the faucet.")
	cmd.Flags().Uint64Var(&o.MaxSupply, maxSupplyF, 1_000_000, "Maximum supply of the faucet.")
	cmd.Flags().IntVar(&o.Notes, notesF, 5, "Number of notes minted.")
	cmd.Flags().Uint64Var(&o.Amount, amountF, 100, "Amount carried by every minted note.")
	cmd.Flags().Bool(privateF, false, "Use private accounts and notes.")
}

func (o *faucetOptions) parse(cmd *cobra.Command) (note.Type, error) {
	private, err := cmd.Flags().GetBool(privateF)
	if err != nil {
		return 0, err
	}
	noteType := note.Public
	o.Mode = address.Public
	if private {
		noteType = note.Private
		o.Mode = address.Private
	}
	return noteType, validator.Validator().Struct(o)
}

// fundWallet creates a faucet and a wallet, mints o.Notes notes to the wallet and consumes them.
func (o *faucetOptions) fundWallet(ctx context.Context, c *client.Client, noteType note.Type,
) (faucet, wallet address.AccountID, err error) {
	f, err := protocol.NewFaucet(c, o.Symbol, o.Decimals, o.MaxSupply, address.Public)
	if err != nil {
		return 0, 0, err
	}
	w, err := protocol.NewWallet(c, true, o.Mode)
	if err != nil {
		return 0, 0, err
	}
	for range o.Notes {
		if _, _, err := protocol.Mint(ctx, c, f.ID, w.ID, o.Amount, noteType); err != nil {
			return 0, 0, err
		}
	}
	if _, err := c.ConsolidateNotes(ctx, w.ID, o.Notes, client.FromFaucet(f.ID)); err != nil {
		return 0, 0, err
	}
	return f.ID, w.ID, nil
}

func CounterCmd(withNode withNodeFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Deploy a counter account and increment it",
	}
	increments := cmd.Flags().Int(incrementsF, 1, "Number of increment transactions.")

	cmd.RunE = withNode(func(cmd *cobra.Command, _ []string, n *node.Node) error {
		if *increments < 1 {
			return fmt.Errorf("%s must be positive", incrementsF)
		}
		return n.Run(cmd.Context(), func(ctx context.Context, c *client.Client) error {
			counter, err := protocol.NewCounter(c)
			if err != nil {
				return err
			}
			for range *increments {
				result, err := protocol.Increment(ctx, c, counter.ID)
				if err != nil {
					return err
				}
				n.Log().Infow("Counter incremented", "tx", result.ID())
			}
			value, err := protocol.CounterValue(c, counter.ID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "counter %s value: %d\n", counter.ID, value)
			return err
		})
	})
	return cmd
}

func MintConsumeCmd(withNode withNodeFn) *cobra.Command {
	var opts faucetOptions
	cmd := &cobra.Command{
		Use:   "mint-consume",
		Short: "Mint notes from a new faucet to a new wallet and consume them in one transaction",
	}
	opts.register(cmd)

	cmd.RunE = withNode(func(cmd *cobra.Command, _ []string, n *node.Node) error {
		noteType, err := opts.parse(cmd)
		if err != nil {
			return err
		}
		return n.Run(cmd.Context(), func(ctx context.Context, c *client.Client) error {
			faucet, wallet, err := opts.fundWallet(ctx, c, noteType)
			if err != nil {
				return err
			}
			balance, err := protocol.Balance(c, wallet, faucet)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wallet %s balance: %d %s\n", wallet, balance, opts.Symbol)
			return err
		})
	})
	return cmd
}

func TransferCmd(withNode withNodeFn) *cobra.Command {
	var opts faucetOptions
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Fund a wallet and disperse its balance to generated targets",
	}
	opts.register(cmd)
	targets := cmd.Flags().Int(targetsF, 3, "Number of payment targets.")

	cmd.RunE = withNode(func(cmd *cobra.Command, _ []string, n *node.Node) error {
		noteType, err := opts.parse(cmd)
		if err != nil {
			return err
		}
		if *targets < 1 {
			return fmt.Errorf("%s must be positive", targetsF)
		}
		return n.Run(cmd.Context(), func(ctx context.Context, c *client.Client) error {
			faucet, wallet, err := opts.fundWallet(ctx, c, noteType)
			if err != nil {
				return err
			}
			share := opts.Amount * uint64(opts.Notes) / uint64(*targets)
			a, err := asset.NewFungibleAsset(faucet, share)
			if err != nil {
				return err
			}
			payments := make([]protocol.Payment, *targets)
			for i := range payments {
				var entropy [32]byte
				entropy[0] = byte(i)
				payments[i] = protocol.Payment{
					Target: address.NewDummy(entropy, address.RegularAccountUpdatableCode, opts.Mode),
					Assets: note.Assets{a},
				}
			}
			_, notes, err := protocol.Disperse(ctx, c, wallet, payments, noteType)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, nt := range notes {
				if _, err := fmt.Fprintf(out, "note %s pays %d to %s\n", nt.ID(), share, payments[i].Target); err != nil {
					return err
				}
			}
			balance, err := protocol.Balance(c, wallet, faucet)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "wallet %s balance: %d %s\n", wallet, balance, opts.Symbol)
			return err
		})
	})
	return cmd
}

func AccountsCmd(withNode withNodeFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List the accounts tracked in the client database",
	}
	cmd.RunE = withNode(func(cmd *cobra.Command, _ []string, n *node.Node) error {
		return n.Run(cmd.Context(), func(_ context.Context, c *client.Client) error {
			wallets, faucets := protocol.ListAccounts(c)
			out := cmd.OutOrStdout()
			for _, d := range wallets {
				if _, err := fmt.Fprintf(out, "wallet %s %s %s nonce=%d assets=%d\n",
					d.ID, d.Type, d.Mode, d.Nonce, len(d.Balances)); err != nil {
					return err
				}
			}
			for _, d := range faucets {
				if d.Faucet == nil {
					continue
				}
				if _, err := fmt.Fprintf(out, "faucet %s %s %s nonce=%d issued=%d/%d\n",
					d.ID, d.Faucet.Symbol, d.Mode, d.Nonce, d.Faucet.Issued, d.Faucet.MaxSupply); err != nil {
					return err
				}
			}
			return nil
		})
	})
	return cmd
}

var errUnknownKind = errors.New("unknown kind (known: account, tx, note)")

func parseKind(s string) (compiler.Kind, error) {
	switch s {
	case "account":
		return compiler.AccountCode, nil
	case "tx":
		return compiler.TxScript, nil
	case "note":
		return compiler.NoteScript, nil
	default:
		return 0, errUnknownKind
	}
}

func CompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Compile account code or a script and print its commitments",
		Args:  cobra.ExactArgs(1),
	}
	kindFlag := cmd.Flags().String(kindF, "tx", "What FILE holds. Options: account, tx, note.")
	libs := cmd.Flags().StringToString(libF, nil, "Account code libraries made available to scripts, as alias=FILE.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(*kindFlag)
		if err != nil {
			return err
		}
		asm := compiler.NewAssembler()
		imports := make(map[string]*compiler.Artifact, len(*libs))
		for alias, path := range *libs {
			source, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			lib, err := asm.Compile(string(source), compiler.Options{Kind: compiler.AccountCode})
			if err != nil {
				return fmt.Errorf("library %s: %w", alias, err)
			}
			imports[alias] = lib
		}

		source, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		artifact, err := asm.Compile(string(source), compiler.Options{Kind: kind, Libraries: imports})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "%s root: %s\n", kind, artifact.Root.Hex()); err != nil {
			return err
		}
		for i, p := range artifact.Procedures {
			if _, err := fmt.Fprintf(out, "procedure %d %s: %s\n", i, p.Name, p.Root.Hex()); err != nil {
				return err
			}
		}
		return nil
	}
	return cmd
}

func RenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render TEMPLATE",
		Short: "Substitute {placeholders} of a script template",
		Args:  cobra.ExactArgs(1),
	}
	binds := cmd.Flags().StringToString(bindF, nil, "Placeholder values, as name=value.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		rendered, err := script.Render(args[0], *binds)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return err
	}
	return cmd
}
