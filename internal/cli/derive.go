package cli

import (
	"crypto/ed25519"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/solana/escrow"
	"github.com/code-payments/custody-server/pkg/solana/vault"
)

func newDeriveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive program addresses",
	}

	cmd.AddCommand(
		newDeriveVaultCommand(),
		newDeriveEscrowCommand(),
		newDeriveEscrowVaultCommand(),
	)
	return cmd
}

func newDeriveVaultCommand() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Derive the vault of an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerKey, err := parseAddressFlag("owner", owner)
			if err != nil {
				return err
			}

			address, bump, err := vault.GetVaultAddress(&vault.GetVaultAddressArgs{Owner: ownerKey})
			if err != nil {
				return errors.Wrap(err, "error deriving vault address")
			}

			printAddress(cmd.OutOrStdout(), address, &bump)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "vault owner address")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newDeriveEscrowCommand() *cobra.Command {
	var maker string
	var seed uint64

	cmd := &cobra.Command{
		Use:   "escrow",
		Short: "Derive the escrow record of a maker's offer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			makerKey, err := parseAddressFlag("maker", maker)
			if err != nil {
				return err
			}

			address, bump, err := escrow.GetEscrowAddress(&escrow.GetEscrowAddressArgs{
				Maker: makerKey,
				Seed:  seed,
			})
			if err != nil {
				return errors.Wrap(err, "error deriving escrow address")
			}

			printAddress(cmd.OutOrStdout(), address, &bump)
			return nil
		},
	}

	cmd.Flags().StringVar(&maker, "maker", "", "maker address")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "offer seed")
	_ = cmd.MarkFlagRequired("maker")
	return cmd
}

func newDeriveEscrowVaultCommand() *cobra.Command {
	var escrowAddress, mint string

	cmd := &cobra.Command{
		Use:   "escrow-vault",
		Short: "Derive the token vault of an escrow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			escrowKey, err := parseAddressFlag("escrow", escrowAddress)
			if err != nil {
				return err
			}
			mintKey, err := parseAddressFlag("mint", mint)
			if err != nil {
				return err
			}

			address, err := escrow.GetVaultAddress(&escrow.GetVaultAddressArgs{
				Escrow: escrowKey,
				Mint:   mintKey,
			})
			if err != nil {
				return errors.Wrap(err, "error deriving escrow vault address")
			}

			printAddress(cmd.OutOrStdout(), address, nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&escrowAddress, "escrow", "", "escrow record address")
	cmd.Flags().StringVar(&mint, "mint", "", "offered mint address")
	_ = cmd.MarkFlagRequired("escrow")
	_ = cmd.MarkFlagRequired("mint")
	return cmd
}

func parseAddressFlag(name, value string) (ed25519.PublicKey, error) {
	address, err := solana.ParseAddress(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --%s", name)
	}
	return address, nil
}

func printAddress(w io.Writer, address ed25519.PublicKey, bump *uint8) {
	fmt.Fprintf(w, "address: %s\n", base58.Encode(address))
	if bump != nil {
		fmt.Fprintf(w, "bump: %d\n", *bump)
	}
}
