package cli

import (
	"crypto/ed25519"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/database/query"
	"github.com/code-payments/custody-server/pkg/ledger"
	"github.com/code-payments/custody-server/pkg/solana/escrow"
	"github.com/code-payments/custody-server/pkg/solana/system"
	"github.com/code-payments/custody-server/pkg/solana/token"
)

func newInspectCommand(s *state) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print and decode a ledger account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseAddressFlag("address", address)
			if err != nil {
				return err
			}

			bank, client, closeFunc, err := s.openClient()
			if err != nil {
				return err
			}
			defer closeFunc()

			account, err := bank.GetAccount(s.ctx, key)
			if err == ledger.ErrAccountNotFound {
				fmt.Fprintf(cmd.OutOrStdout(), "account %s does not exist\n", address)
				return nil
			} else if err != nil {
				return errors.Wrap(err, "error getting account")
			}

			rent := bank.Rent(s.ctx)
			return describeAccount(cmd.OutOrStdout(), client, s, key, account, rent)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "account address")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func describeAccount(w io.Writer, client *custody.Client, s *state, address ed25519.PublicKey, account *ledger.Account, rent ledger.Rent) error {
	fmt.Fprintf(w, "address: %s\n", account.Address)
	fmt.Fprintf(w, "owner: %s\n", account.Owner)
	fmt.Fprintf(w, "lamports: %d\n", account.Lamports)
	fmt.Fprintf(w, "data_len: %d\n", len(account.Data))
	fmt.Fprintf(w, "rent_exempt: %t\n", rent.IsExempt(account.Lamports, uint64(len(account.Data))))
	fmt.Fprintf(w, "version: %d\n", account.Version)

	switch account.Owner {
	case base58.Encode(escrow.PROGRAM_ID):
		offer, err := client.GetEscrow(s.ctx, address)
		if err != nil {
			return errors.Wrap(err, "error decoding escrow")
		}
		describeEscrow(w, offer)
	case base58.Encode(token.ProgramKey):
		describeTokenAccount(w, account.Data)
	case base58.Encode(system.ProgramKey):
		fmt.Fprintln(w, "type: system account")
	default:
		fmt.Fprintln(w, "type: unknown")
	}
	return nil
}

func describeEscrow(w io.Writer, offer *custody.Escrow) {
	fmt.Fprintln(w, "type: escrow")
	fmt.Fprintf(w, "record: %s\n", offer.State.ToString())
	fmt.Fprintf(w, "vault: %s\n", base58.Encode(offer.Vault))
	fmt.Fprintf(w, "offered: %d\n", offer.Offered)
	fmt.Fprintf(w, "cursor: %s\n", offer.Cursor.ToBase58())
}

func describeTokenAccount(w io.Writer, data []byte) {
	var holding token.Account
	if holding.Unmarshal(data) {
		fmt.Fprintln(w, "type: token account")
		fmt.Fprintf(w, "mint: %s\n", base58.Encode(holding.Mint))
		fmt.Fprintf(w, "token_owner: %s\n", base58.Encode(holding.Owner))
		fmt.Fprintf(w, "amount: %d\n", holding.Amount)
		return
	}

	var mint token.Mint
	if mint.Unmarshal(data) {
		fmt.Fprintln(w, "type: mint")
		fmt.Fprintf(w, "supply: %d\n", mint.Supply)
		fmt.Fprintf(w, "decimals: %d\n", mint.Decimals)
		return
	}

	fmt.Fprintln(w, "type: unknown token program account")
}

func newEscrowsCommand(s *state) *cobra.Command {
	var limit uint64
	var cursor string
	var order string

	cmd := &cobra.Command{
		Use:   "escrows",
		Short: "List open escrow offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := query.ToOrdering(order)
			if err != nil {
				return errors.Wrap(err, "invalid --order")
			}

			opts := []query.Option{query.WithLimit(limit), query.WithDirection(direction)}
			if len(cursor) > 0 {
				decoded, err := query.FromBase58(cursor)
				if err != nil {
					return errors.Wrap(err, "invalid --cursor")
				}
				opts = append(opts, query.WithCursor(decoded))
			}

			_, client, closeFunc, err := s.openClient()
			if err != nil {
				return err
			}
			defer closeFunc()

			offers, err := client.GetOpenEscrows(s.ctx, opts...)
			if err != nil {
				return errors.Wrap(err, "error listing escrows")
			}

			w := cmd.OutOrStdout()
			for i, offer := range offers {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "address: %s\n", base58.Encode(offer.Address))
				describeEscrow(w, offer)
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&limit, "limit", 100, "maximum number of offers")
	cmd.Flags().StringVar(&cursor, "cursor", "", "resume after this cursor")
	cmd.Flags().StringVar(&order, "order", query.Ascending.String(), "asc or desc")
	return cmd
}

func newBalanceCommand(s *state) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print the vault balance of an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerKey, err := parseAddressFlag("owner", owner)
			if err != nil {
				return err
			}

			_, client, closeFunc, err := s.openClient()
			if err != nil {
				return err
			}
			defer closeFunc()

			balance, err := client.GetVaultBalance(s.ctx, ownerKey)
			if err != nil {
				return errors.Wrap(err, "error getting vault balance")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "balance: %d\n", balance)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "vault owner address")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
