package ledger

import (
	"context"
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/custody-server/pkg/solana/token"
)

// The fixtures below set up state outside of a transaction, in the same way a
// test validator's genesis config would. They mint lamports and tokens and are
// not subject to conservation checks.

// Airdrop credits lamports to an account, creating it as a system account if
// it doesn't exist.
func (b *Bank) Airdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) error {
	if lamports == 0 {
		return errors.New("airdrop amount must be positive")
	}

	mu := b.locks.Get(address)
	mu.Lock()
	defer mu.Unlock()

	account, err := b.loadOne(ctx, address)
	if err != nil {
		return err
	}

	if account.Lamports > math.MaxUint64-lamports {
		return errors.New("airdrop overflows balance")
	}

	if !account.Exists() {
		account.Owner = systemProgram
	}
	account.Lamports += lamports

	return b.store.Commit(ctx, account)
}

// CreateMint creates an initialized token mint with a random address.
func (b *Bank) CreateMint(ctx context.Context, authority ed25519.PublicKey, decimals uint8) (ed25519.PublicKey, error) {
	address, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}

	mint := &token.Mint{
		MintAuthority: authority,
		Decimals:      decimals,
		IsInitialized: true,
	}

	account := &Account{
		Address:  base58.Encode(address),
		Owner:    tokenProgram,
		Lamports: b.Rent(ctx).MinimumBalance(token.MintSize),
		Data:     mint.Marshal(),
	}
	if err := b.store.Commit(ctx, account); err != nil {
		return nil, err
	}
	return address, nil
}

// MintTo mints tokens into the owner's associated token account, creating it
// if needed, and returns the holding account's address.
func (b *Bank) MintTo(ctx context.Context, mint, owner ed25519.PublicKey, amount uint64) (ed25519.PublicKey, error) {
	address, err := token.GetAssociatedAccount(owner, mint)
	if err != nil {
		return nil, err
	}

	unlock := b.locks.LockAll([][]byte{mint, address}, nil)
	defer unlock()

	mintAccount, err := b.loadOne(ctx, mint)
	if err != nil {
		return nil, err
	}
	mintState, err := decodeMint(mintAccount)
	if err != nil {
		return nil, ErrInvalidAccount
	}

	holdingAccount, err := b.loadOne(ctx, address)
	if err != nil {
		return nil, err
	}

	holding := &token.Account{
		Mint:  mint,
		Owner: owner,
		State: token.AccountStateInitialized,
	}
	if holdingAccount.Exists() {
		holding, err = decodeHoldingAccount(holdingAccount)
		if err != nil {
			return nil, ErrInvalidAccount
		}
	} else {
		holdingAccount.Owner = tokenProgram
		holdingAccount.Lamports = b.Rent(ctx).MinimumBalance(token.AccountSize)
	}

	if mintState.Supply > math.MaxUint64-amount || holding.Amount > math.MaxUint64-amount {
		return nil, errors.New("mint overflows supply")
	}

	mintState.Supply += amount
	holding.Amount += amount

	mintAccount.Data = mintState.Marshal()
	holdingAccount.Data = holding.Marshal()

	if err := b.store.Commit(ctx, mintAccount, holdingAccount); err != nil {
		return nil, err
	}
	return address, nil
}

func (b *Bank) loadOne(ctx context.Context, address ed25519.PublicKey) (*Account, error) {
	encoded := base58.Encode(address)

	account, err := b.store.Get(ctx, encoded)
	if err == ErrAccountNotFound {
		return &Account{Address: encoded}, nil
	}
	return account, err
}
