package custody

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/database/query"
	"github.com/code-payments/custody-server/pkg/ledger"
	"github.com/code-payments/custody-server/pkg/metrics"
	"github.com/code-payments/custody-server/pkg/program"
	"github.com/code-payments/custody-server/pkg/retry"
	"github.com/code-payments/custody-server/pkg/retry/backoff"
	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/solana/escrow"
	"github.com/code-payments/custody-server/pkg/solana/token"
	"github.com/code-payments/custody-server/pkg/solana/vault"
)

const (
	metricsStructName = "custody.client"
)

// Escrow is an open offer along with the derived accounts backing it.
type Escrow struct {
	Address ed25519.PublicKey
	Vault   ed25519.PublicKey
	State   *escrow.EscrowAccount

	// Offered is the amount of the offered mint held in the vault
	Offered uint64

	// Cursor positions pagination after this escrow
	Cursor query.Cursor
}

// Client derives accounts, builds and signs transactions for the vault and
// escrow programs, and submits them to a Bank. Submissions that lose a commit
// race are rebuilt and retried.
type Client struct {
	log  *logrus.Entry
	conf *conf
	bank *ledger.Bank
}

func NewClient(bank *ledger.Bank, configProvider ConfigProvider) *Client {
	return &Client{
		log:  logrus.StandardLogger().WithField("type", "custody/client"),
		conf: configProvider(),
		bank: bank,
	}
}

// Deposit funds the owner's vault with amount lamports.
func (c *Client) Deposit(ctx context.Context, owner ed25519.PrivateKey, amount uint64) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Deposit")
	defer tracer.End()

	ownerKey := publicKey(owner)
	vaultAddress, _, err := vault.GetVaultAddress(&vault.GetVaultAddressArgs{Owner: ownerKey})
	if err != nil {
		tracer.OnError(err)
		return "", errors.Wrap(err, "error deriving vault address")
	}

	signature, err := c.submit(ctx, "Deposit", []ed25519.PrivateKey{owner}, func() ([]solana.Instruction, error) {
		return []solana.Instruction{
			vault.NewDepositInstruction(
				&vault.DepositInstructionAccounts{
					Owner: ownerKey,
					Vault: vaultAddress,
				},
				&vault.DepositInstructionArgs{Amount: amount},
			),
		}, nil
	})
	tracer.OnError(err)
	return signature, err
}

// Withdraw drains and closes the owner's vault.
func (c *Client) Withdraw(ctx context.Context, owner ed25519.PrivateKey) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Withdraw")
	defer tracer.End()

	ownerKey := publicKey(owner)
	vaultAddress, _, err := vault.GetVaultAddress(&vault.GetVaultAddressArgs{Owner: ownerKey})
	if err != nil {
		tracer.OnError(err)
		return "", errors.Wrap(err, "error deriving vault address")
	}

	signature, err := c.submit(ctx, "Withdraw", []ed25519.PrivateKey{owner}, func() ([]solana.Instruction, error) {
		return []solana.Instruction{
			vault.NewWithdrawInstruction(&vault.WithdrawInstructionAccounts{
				Owner: ownerKey,
				Vault: vaultAddress,
			}),
		}, nil
	})
	tracer.OnError(err)
	return signature, err
}

// GetVaultBalance gets the balance of the owner's vault, which is zero when
// the vault doesn't exist.
func (c *Client) GetVaultBalance(ctx context.Context, owner ed25519.PublicKey) (uint64, error) {
	vaultAddress, _, err := vault.GetVaultAddress(&vault.GetVaultAddressArgs{Owner: owner})
	if err != nil {
		return 0, errors.Wrap(err, "error deriving vault address")
	}
	return c.bank.GetBalance(ctx, vaultAddress)
}

// Make opens an offer of amount mintA in exchange for receive mintB, and
// returns the escrow address.
func (c *Client) Make(ctx context.Context, maker ed25519.PrivateKey, seed uint64, mintA, mintB ed25519.PublicKey, receive, amount uint64) (ed25519.PublicKey, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Make")
	defer tracer.End()

	makerKey := publicKey(maker)
	escrowAddress, _, err := escrow.GetEscrowAddress(&escrow.GetEscrowAddressArgs{
		Maker: makerKey,
		Seed:  seed,
	})
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "error deriving escrow address")
	}

	vaultAddress, err := escrow.GetVaultAddress(&escrow.GetVaultAddressArgs{
		Escrow: escrowAddress,
		Mint:   mintA,
	})
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "error deriving escrow vault address")
	}

	makerAtaA, err := token.GetAssociatedAccount(makerKey, mintA)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "error deriving maker token account")
	}

	_, err = c.submit(ctx, "Make", []ed25519.PrivateKey{maker}, func() ([]solana.Instruction, error) {
		return []solana.Instruction{
			escrow.NewMakeInstruction(
				&escrow.MakeInstructionAccounts{
					Maker:     makerKey,
					Escrow:    escrowAddress,
					MintA:     mintA,
					MintB:     mintB,
					MakerAtaA: makerAtaA,
					Vault:     vaultAddress,
				},
				&escrow.MakeInstructionArgs{
					Seed:    seed,
					Receive: receive,
					Amount:  amount,
				},
			),
		}, nil
	})
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return escrowAddress, nil
}

// Take accepts an open offer. The accounts are derived from the stored escrow
// record, and program.ErrNotFound is returned once the offer is consumed.
func (c *Client) Take(ctx context.Context, taker ed25519.PrivateKey, escrowAddress ed25519.PublicKey) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Take")
	defer tracer.End()

	takerKey := publicKey(taker)

	signature, err := c.submit(ctx, "Take", []ed25519.PrivateKey{taker}, func() ([]solana.Instruction, error) {
		record, err := c.GetEscrow(ctx, escrowAddress)
		if err != nil {
			return nil, err
		}

		takerAtaA, err := token.GetAssociatedAccount(takerKey, record.State.MintA)
		if err != nil {
			return nil, err
		}
		takerAtaB, err := token.GetAssociatedAccount(takerKey, record.State.MintB)
		if err != nil {
			return nil, err
		}
		makerAtaB, err := token.GetAssociatedAccount(record.State.Maker, record.State.MintB)
		if err != nil {
			return nil, err
		}

		return []solana.Instruction{
			escrow.NewTakeInstruction(&escrow.TakeInstructionAccounts{
				Taker:     takerKey,
				Maker:     record.State.Maker,
				Escrow:    escrowAddress,
				MintA:     record.State.MintA,
				MintB:     record.State.MintB,
				Vault:     record.Vault,
				TakerAtaA: takerAtaA,
				TakerAtaB: takerAtaB,
				MakerAtaB: makerAtaB,
			}),
		}, nil
	})
	tracer.OnError(err)
	return signature, err
}

// Refund cancels the maker's open offer for seed and returns the offered
// tokens.
func (c *Client) Refund(ctx context.Context, maker ed25519.PrivateKey, seed uint64) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Refund")
	defer tracer.End()

	makerKey := publicKey(maker)
	escrowAddress, _, err := escrow.GetEscrowAddress(&escrow.GetEscrowAddressArgs{
		Maker: makerKey,
		Seed:  seed,
	})
	if err != nil {
		tracer.OnError(err)
		return "", errors.Wrap(err, "error deriving escrow address")
	}

	signature, err := c.submit(ctx, "Refund", []ed25519.PrivateKey{maker}, func() ([]solana.Instruction, error) {
		record, err := c.GetEscrow(ctx, escrowAddress)
		if err != nil {
			return nil, err
		}

		makerAtaA, err := token.GetAssociatedAccount(makerKey, record.State.MintA)
		if err != nil {
			return nil, err
		}

		return []solana.Instruction{
			escrow.NewRefundInstruction(&escrow.RefundInstructionAccounts{
				Maker:     makerKey,
				Escrow:    escrowAddress,
				MintA:     record.State.MintA,
				Vault:     record.Vault,
				MakerAtaA: makerAtaA,
			}),
		}, nil
	})
	tracer.OnError(err)
	return signature, err
}

// GetEscrow gets an open offer. program.ErrNotFound is returned if the record
// doesn't exist.
func (c *Client) GetEscrow(ctx context.Context, address ed25519.PublicKey) (*Escrow, error) {
	account, err := c.bank.GetAccount(ctx, address)
	if err == ledger.ErrAccountNotFound {
		return nil, program.ErrNotFound
	} else if err != nil {
		return nil, err
	}

	return c.toEscrow(ctx, address, account)
}

// GetOpenEscrows gets a page of open offers across all makers.
func (c *Client) GetOpenEscrows(ctx context.Context, opts ...query.Option) ([]*Escrow, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetOpenEscrows")
	defer tracer.End()

	accounts, err := c.bank.GetProgramAccounts(ctx, escrow.PROGRAM_ID, opts...)
	if err == ledger.ErrAccountNotFound {
		return nil, nil
	} else if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	res := make([]*Escrow, 0, len(accounts))
	for _, account := range accounts {
		address, err := base58.Decode(account.Address)
		if err != nil {
			tracer.OnError(err)
			return nil, errors.Wrapf(err, "invalid account address %s", account.Address)
		}

		escrowRecord, err := c.toEscrow(ctx, address, account)
		if err != nil {
			tracer.OnError(err)
			return nil, err
		}
		res = append(res, escrowRecord)
	}
	return res, nil
}

func (c *Client) toEscrow(ctx context.Context, address ed25519.PublicKey, account *ledger.Account) (*Escrow, error) {
	if !account.IsOwnedBy(base58.Encode(escrow.PROGRAM_ID)) {
		return nil, program.ErrNotFound
	}

	var state escrow.EscrowAccount
	if err := state.Unmarshal(account.Data); err != nil {
		return nil, program.ErrNotFound
	}

	vaultAddress, err := escrow.GetVaultAddress(&escrow.GetVaultAddressArgs{
		Escrow: address,
		Mint:   state.MintA,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving escrow vault address")
	}

	var offered uint64
	holding, err := c.bank.GetTokenAccount(ctx, vaultAddress)
	switch err {
	case nil:
		offered = holding.Amount
	case ledger.ErrAccountNotFound:
	default:
		return nil, errors.Wrap(err, "error getting escrow vault")
	}

	return &Escrow{
		Address: address,
		Vault:   vaultAddress,
		State:   &state,
		Offered: offered,
		Cursor:  query.ToCursor(account.Id),
	}, nil
}

// submit builds, signs and executes a transaction, rebuilding it with a fresh
// blockhash whenever the commit loses to a concurrent writer.
func (c *Client) submit(ctx context.Context, method string, signers []ed25519.PrivateKey, build func() ([]solana.Instruction, error)) (string, error) {
	log := c.log.WithField("method", method)

	maxRetries := c.conf.maxRetries.Get(ctx)
	retryBackoff := c.conf.retryBackoff.Get(ctx)
	maxRetryBackoff := c.conf.maxRetryBackoff.Get(ctx)

	var signature string
	attempts, err := retry.Retry(
		func() error {
			instructions, err := build()
			if err != nil {
				return err
			}

			txn := solana.NewTransaction(publicKey(signers[0]), instructions...)

			var blockhash solana.Blockhash
			if _, err := rand.Read(blockhash[:]); err != nil {
				return errors.Wrap(err, "error generating blockhash")
			}
			txn.SetBlockhash(blockhash)

			if err := txn.Sign(signers...); err != nil {
				return errors.Wrap(err, "error signing transaction")
			}

			signature, err = c.bank.Execute(ctx, txn)
			return err
		},
		retry.RetriableErrors(ledger.ErrStaleAccount),
		retry.Limit(uint(maxRetries)+1),
		retry.Context(ctx),
		retry.OnRetry(func(attempts uint, err error) {
			log.WithField("attempt", attempts).Debug("commit lost to a concurrent writer, retrying")
		}),
		retry.BackoffWithJitter(backoff.BinaryExponential(retryBackoff), maxRetryBackoff, 0.1),
	)

	log = log.WithFields(logrus.Fields{
		"signature": signature,
		"attempts":  attempts,
	})
	if err != nil {
		log.WithError(err).Info("transaction failed")
		return signature, err
	}

	log.Debug("transaction submitted")
	return signature, nil
}

func publicKey(key ed25519.PrivateKey) ed25519.PublicKey {
	return key.Public().(ed25519.PublicKey)
}
