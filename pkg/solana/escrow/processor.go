package escrow

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/custody-server/pkg/ledger"
	"github.com/code-payments/custody-server/pkg/program"
	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/solana/token"
)

var programAddress = base58.Encode(PROGRAM_ID)

// Process executes an escrow instruction. All validation runs before the
// first token movement, and the ledger discards every effect of a failed
// instruction.
func Process(ic ledger.InvokeContext, ixn solana.Instruction) error {
	if len(ixn.Data) == 0 {
		return program.ErrInvalidInstruction
	}

	switch instructionType(ixn.Data[0]) {
	case instructionTypeMake:
		return processMake(ic, ixn)
	case instructionTypeTake:
		return processTake(ic, ixn)
	case instructionTypeRefund:
		return processRefund(ic, ixn)
	default:
		return program.ErrInvalidInstruction
	}
}

func processMake(ic ledger.InvokeContext, ixn solana.Instruction) error {
	args, accounts, err := MakeInstructionFromBinary(ixn)
	if err != nil {
		return program.ErrInvalidInstruction
	}
	if err := requireProgramAccounts(ixn); err != nil {
		return err
	}

	if err := program.RequireSigner(ic, accounts.Maker); err != nil {
		return err
	}

	if args.Amount == 0 || args.Receive == 0 {
		return program.ErrInvalidAmount
	}

	if bytes.Equal(accounts.MintA, accounts.MintB) {
		return program.ErrInvalidMint
	}
	if _, err := ic.Mint(accounts.MintA); err != nil {
		return program.ErrInvalidMint
	}
	if _, err := ic.Mint(accounts.MintB); err != nil {
		return program.ErrInvalidMint
	}

	escrowAddress, bump, err := GetEscrowAddress(&GetEscrowAddressArgs{
		Maker: accounts.Maker,
		Seed:  args.Seed,
	})
	if err != nil {
		return program.ErrAddressMismatch
	}
	if err := program.RequireAddress(accounts.Escrow, escrowAddress); err != nil {
		return err
	}

	escrowAccount, err := ic.Account(accounts.Escrow)
	if err != nil {
		return err
	}
	if escrowAccount.Exists() {
		return program.ErrEscrowAlreadyExists
	}

	if err := requireVaultAddress(accounts.Vault, accounts.Escrow, accounts.MintA); err != nil {
		return err
	}
	vaultAccount, err := ic.Account(accounts.Vault)
	if err != nil {
		return err
	}
	if vaultAccount.Exists() {
		return program.ErrAddressMismatch
	}

	makerAtaA, err := loadHolding(ic, accounts.MakerAtaA, accounts.MintA, accounts.Maker)
	if err != nil {
		return err
	}
	if makerAtaA.Amount < args.Amount {
		return program.ErrInsufficientFunds
	}

	maker, err := ic.Account(accounts.Maker)
	if err != nil {
		return err
	}
	rent := ic.Rent()
	if maker.Lamports < rent.MinimumBalance(EscrowAccountSize)+rent.MinimumBalance(token.AccountSize) {
		return program.ErrInsufficientFunds
	}

	record := &EscrowAccount{
		Seed:    args.Seed,
		Maker:   accounts.Maker,
		MintA:   accounts.MintA,
		MintB:   accounts.MintB,
		Receive: args.Receive,
		Bump:    bump,
	}

	seeds := escrowSignerSeeds(accounts.Maker, args.Seed, bump)
	if err := ic.CreateAccount(accounts.Maker, accounts.Escrow, EscrowAccountSize, seeds); err != nil {
		return err
	}
	if err := ic.WriteData(accounts.Escrow, record.Marshal()); err != nil {
		return err
	}
	if _, err := ic.CreateHoldingAccount(accounts.Maker, accounts.Escrow, accounts.MintA); err != nil {
		return err
	}
	return ic.TransferTokens(accounts.MakerAtaA, accounts.Vault, accounts.Maker, args.Amount, nil)
}

func processTake(ic ledger.InvokeContext, ixn solana.Instruction) error {
	accounts, err := TakeInstructionFromBinary(ixn)
	if err != nil {
		return program.ErrInvalidInstruction
	}
	if err := requireProgramAccounts(ixn); err != nil {
		return err
	}

	if err := program.RequireSigner(ic, accounts.Taker); err != nil {
		return err
	}

	record, err := loadEscrow(ic, accounts.Escrow)
	if err != nil {
		return err
	}

	seeds := escrowSignerSeeds(record.Maker, record.Seed, record.Bump)
	if err := program.RequireProgramAddress(accounts.Escrow, PROGRAM_ID, seeds...); err != nil {
		return err
	}
	if err := program.RequireAddress(accounts.Maker, record.Maker); err != nil {
		return err
	}

	if !bytes.Equal(accounts.MintA, record.MintA) || !bytes.Equal(accounts.MintB, record.MintB) {
		return program.ErrInvalidMint
	}

	if err := requireVaultAddress(accounts.Vault, accounts.Escrow, accounts.MintA); err != nil {
		return err
	}
	if err := requireAssociatedAddress(accounts.TakerAtaA, accounts.Taker, accounts.MintA); err != nil {
		return err
	}
	if err := requireAssociatedAddress(accounts.MakerAtaB, accounts.Maker, accounts.MintB); err != nil {
		return err
	}

	takerAtaB, err := loadHolding(ic, accounts.TakerAtaB, accounts.MintB, accounts.Taker)
	if err != nil {
		return err
	}
	if takerAtaB.Amount < record.Receive {
		return program.ErrInsufficientFunds
	}

	vault, err := ic.HoldingAccount(accounts.Vault)
	if err != nil {
		return err
	}

	if err := createHoldingIfNeeded(ic, accounts.Taker, accounts.Taker, accounts.MintA, accounts.TakerAtaA); err != nil {
		return err
	}
	if err := createHoldingIfNeeded(ic, accounts.Taker, accounts.Maker, accounts.MintB, accounts.MakerAtaB); err != nil {
		return err
	}

	// The taker pays first, so an underfunded taker never receives the vault
	if err := ic.TransferTokens(accounts.TakerAtaB, accounts.MakerAtaB, accounts.Taker, record.Receive, nil); err != nil {
		return err
	}
	if err := ic.TransferTokens(accounts.Vault, accounts.TakerAtaA, accounts.Escrow, vault.Amount, seeds); err != nil {
		return err
	}
	if err := ic.CloseHoldingAccount(accounts.Vault, accounts.Maker, accounts.Escrow, seeds); err != nil {
		return err
	}
	return ic.CloseAccount(accounts.Escrow, accounts.Maker)
}

func processRefund(ic ledger.InvokeContext, ixn solana.Instruction) error {
	accounts, err := RefundInstructionFromBinary(ixn)
	if err != nil {
		return program.ErrInvalidInstruction
	}
	if err := requireProgramAccounts(ixn); err != nil {
		return err
	}

	if err := program.RequireSigner(ic, accounts.Maker); err != nil {
		return err
	}

	record, err := loadEscrow(ic, accounts.Escrow)
	if err != nil {
		return err
	}
	if !bytes.Equal(accounts.Maker, record.Maker) {
		return program.ErrUnauthorized
	}

	seeds := escrowSignerSeeds(record.Maker, record.Seed, record.Bump)
	if err := program.RequireProgramAddress(accounts.Escrow, PROGRAM_ID, seeds...); err != nil {
		return err
	}

	if !bytes.Equal(accounts.MintA, record.MintA) {
		return program.ErrInvalidMint
	}

	if err := requireVaultAddress(accounts.Vault, accounts.Escrow, accounts.MintA); err != nil {
		return err
	}
	if err := requireAssociatedAddress(accounts.MakerAtaA, accounts.Maker, accounts.MintA); err != nil {
		return err
	}

	vault, err := ic.HoldingAccount(accounts.Vault)
	if err != nil {
		return err
	}

	if err := createHoldingIfNeeded(ic, accounts.Maker, accounts.Maker, accounts.MintA, accounts.MakerAtaA); err != nil {
		return err
	}

	if err := ic.TransferTokens(accounts.Vault, accounts.MakerAtaA, accounts.Escrow, vault.Amount, seeds); err != nil {
		return err
	}
	if err := ic.CloseHoldingAccount(accounts.Vault, accounts.Maker, accounts.Escrow, seeds); err != nil {
		return err
	}
	return ic.CloseAccount(accounts.Escrow, accounts.Maker)
}

func requireProgramAccounts(ixn solana.Instruction) error {
	expected := programAccountMetas()
	supplied := ixn.Accounts[len(ixn.Accounts)-len(expected):]
	for i := range expected {
		if err := program.RequireProgram(supplied[i].PublicKey, expected[i].PublicKey); err != nil {
			return err
		}
	}
	return nil
}

func requireVaultAddress(vault, escrow, mint ed25519.PublicKey) error {
	expected, err := GetVaultAddress(&GetVaultAddressArgs{Escrow: escrow, Mint: mint})
	if err != nil {
		return program.ErrAddressMismatch
	}
	return program.RequireAddress(vault, expected)
}

func requireAssociatedAddress(address, owner, mint ed25519.PublicKey) error {
	expected, err := token.GetAssociatedAccount(owner, mint)
	if err != nil {
		return program.ErrAddressMismatch
	}
	return program.RequireAddress(address, expected)
}

// loadEscrow decodes the escrow record, treating anything that isn't a live
// record owned by this program as consumed.
func loadEscrow(ic ledger.InvokeContext, address ed25519.PublicKey) (*EscrowAccount, error) {
	account, err := ic.Account(address)
	if err != nil {
		return nil, err
	}
	if !account.IsOwnedBy(programAddress) {
		return nil, program.ErrNotFound
	}

	var record EscrowAccount
	if err := record.Unmarshal(account.Data); err != nil {
		return nil, program.ErrNotFound
	}
	return &record, nil
}

// loadHolding loads a token account that must hold mint on behalf of owner.
func loadHolding(ic ledger.InvokeContext, address, mint, owner ed25519.PublicKey) (*token.Account, error) {
	account, err := ic.Account(address)
	if err != nil {
		return nil, err
	}
	if !account.Exists() {
		return nil, program.ErrInsufficientFunds
	}

	holding, err := ic.HoldingAccount(address)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(holding.Mint, mint) {
		return nil, program.ErrInvalidMint
	}
	if !bytes.Equal(holding.Owner, owner) {
		return nil, program.ErrUnauthorized
	}
	return holding, nil
}

func createHoldingIfNeeded(ic ledger.InvokeContext, payer, owner, mint, address ed25519.PublicKey) error {
	account, err := ic.Account(address)
	if err != nil {
		return err
	}
	if account.Exists() {
		return nil
	}

	_, err = ic.CreateHoldingAccount(payer, owner, mint)
	return err
}
