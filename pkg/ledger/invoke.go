package ledger

import (
	"bytes"
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58"

	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/solana/system"
	"github.com/code-payments/custody-server/pkg/solana/token"
)

var (
	systemProgram = base58.Encode(system.ProgramKey)
	tokenProgram  = base58.Encode(token.ProgramKey)
)

// InvokeContext is the view of the ledger given to a program while it
// processes a single instruction. Every effect is applied to the transaction's
// working set and is only persisted if the whole transaction succeeds.
//
// Signer seeds, when provided, let the invoking program sign for the program
// derived address they produce.
type InvokeContext interface {
	// ProgramID is the program processing the instruction
	ProgramID() ed25519.PublicKey

	Rent() Rent

	// IsSigner reports whether address signed the transaction and is marked
	// as a signer in the instruction
	IsSigner(address ed25519.PublicKey) bool

	// Account returns a copy of the account state. Accounts that don't exist
	// are returned with zero lamports.
	Account(address ed25519.PublicKey) (*Account, error)

	TransferLamports(from, to ed25519.PublicKey, amount uint64, signerSeeds [][]byte) error
	CreateAccount(payer, address ed25519.PublicKey, space uint64, signerSeeds [][]byte) error
	WriteData(address ed25519.PublicKey, data []byte) error
	CloseAccount(address, destination ed25519.PublicKey) error

	// CreateHoldingAccount creates the associated token account of owner for
	// mint, funded by payer, and returns its address.
	CreateHoldingAccount(payer, owner, mint ed25519.PublicKey) (ed25519.PublicKey, error)
	TransferTokens(from, to, authority ed25519.PublicKey, amount uint64, signerSeeds [][]byte) error
	CloseHoldingAccount(address, destination, authority ed25519.PublicKey, signerSeeds [][]byte) error
	HoldingAccount(address ed25519.PublicKey) (*token.Account, error)
	Mint(address ed25519.PublicKey) (*token.Mint, error)
}

type invokeContext struct {
	programID ed25519.PublicKey
	program   string
	rent      Rent
	accounts  *workingSet
	metas     []solana.AccountMeta
}

func newInvokeContext(programID ed25519.PublicKey, rent Rent, accounts *workingSet, metas []solana.AccountMeta) *invokeContext {
	return &invokeContext{
		programID: programID,
		program:   base58.Encode(programID),
		rent:      rent,
		accounts:  accounts,
		metas:     metas,
	}
}

func (ic *invokeContext) ProgramID() ed25519.PublicKey {
	return ic.programID
}

func (ic *invokeContext) Rent() Rent {
	return ic.rent
}

func (ic *invokeContext) IsSigner(address ed25519.PublicKey) bool {
	meta, ok := ic.meta(address)
	return ok && meta.IsSigner
}

func (ic *invokeContext) Account(address ed25519.PublicKey) (*Account, error) {
	account, _, err := ic.lookup(address)
	if err != nil {
		return nil, err
	}
	return account.state.Clone(), nil
}

func (ic *invokeContext) TransferLamports(from, to ed25519.PublicKey, amount uint64, signerSeeds [][]byte) error {
	source, sourceMeta, err := ic.lookup(from)
	if err != nil {
		return err
	}
	destination, destinationMeta, err := ic.lookup(to)
	if err != nil {
		return err
	}

	if !destinationMeta.IsWritable {
		return solana.InstructionErrorReadonlyLamportChange
	}

	if err := ic.debit(source, sourceMeta, amount, signerSeeds); err != nil {
		return err
	}
	return ic.credit(destination, amount, systemProgram)
}

func (ic *invokeContext) CreateAccount(payer, address ed25519.PublicKey, space uint64, signerSeeds [][]byte) error {
	funder, funderMeta, err := ic.lookup(payer)
	if err != nil {
		return err
	}
	account, accountMeta, err := ic.lookup(address)
	if err != nil {
		return err
	}

	if !accountMeta.IsWritable {
		return solana.InstructionErrorReadonlyDataModified
	}
	if !ic.signed(address, signerSeeds) {
		return solana.InstructionErrorMissingRequiredSignature
	}
	if account.state.Exists() {
		return solana.InstructionErrorAccountAlreadyInitialized
	}

	lamports := ic.rent.MinimumBalance(space)
	if err := ic.debit(funder, funderMeta, lamports, signerSeeds); err != nil {
		return err
	}

	account.state.Owner = ic.program
	account.state.Lamports = lamports
	account.state.Data = make([]byte, space)
	account.dirty = true
	return nil
}

func (ic *invokeContext) WriteData(address ed25519.PublicKey, data []byte) error {
	account, meta, err := ic.lookup(address)
	if err != nil {
		return err
	}

	if !meta.IsWritable {
		return solana.InstructionErrorReadonlyDataModified
	}
	if !account.state.IsOwnedBy(ic.program) {
		return solana.InstructionErrorExternalAccountDataModified
	}
	if len(data) > len(account.state.Data) {
		return solana.InstructionErrorAccountDataTooSmall
	}

	copy(account.state.Data, data)
	account.dirty = true
	return nil
}

func (ic *invokeContext) CloseAccount(address, destination ed25519.PublicKey) error {
	account, meta, err := ic.lookup(address)
	if err != nil {
		return err
	}
	recipient, recipientMeta, err := ic.lookup(destination)
	if err != nil {
		return err
	}

	if bytes.Equal(address, destination) {
		return solana.InstructionErrorInvalidArgument
	}
	if !meta.IsWritable || !recipientMeta.IsWritable {
		return solana.InstructionErrorReadonlyLamportChange
	}
	if !account.state.IsOwnedBy(ic.program) {
		return solana.InstructionErrorExternalAccountDataModified
	}

	lamports := account.state.Lamports
	account.state.Lamports = 0
	account.dirty = true
	return ic.credit(recipient, lamports, systemProgram)
}

func (ic *invokeContext) CreateHoldingAccount(payer, owner, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	address, err := token.GetAssociatedAccount(owner, mint)
	if err != nil {
		return nil, solana.InstructionErrorInvalidSeeds
	}

	funder, funderMeta, err := ic.lookup(payer)
	if err != nil {
		return nil, err
	}
	account, meta, err := ic.lookup(address)
	if err != nil {
		return nil, err
	}

	if !meta.IsWritable {
		return nil, solana.InstructionErrorReadonlyDataModified
	}
	if account.state.Exists() {
		return nil, solana.InstructionErrorAccountAlreadyInitialized
	}
	if _, err := ic.Mint(mint); err != nil {
		return nil, err
	}

	lamports := ic.rent.MinimumBalance(token.AccountSize)
	if err := ic.debit(funder, funderMeta, lamports, nil); err != nil {
		return nil, err
	}

	holding := &token.Account{
		Mint:  mint,
		Owner: owner,
		State: token.AccountStateInitialized,
	}

	account.state.Owner = tokenProgram
	account.state.Lamports = lamports
	account.state.Data = holding.Marshal()
	account.dirty = true
	return address, nil
}

func (ic *invokeContext) TransferTokens(from, to, authority ed25519.PublicKey, amount uint64, signerSeeds [][]byte) error {
	source, sourceMeta, err := ic.lookup(from)
	if err != nil {
		return err
	}
	destination, destinationMeta, err := ic.lookup(to)
	if err != nil {
		return err
	}

	if !sourceMeta.IsWritable || !destinationMeta.IsWritable {
		return solana.InstructionErrorReadonlyDataModified
	}

	sourceHolding, err := decodeHoldingAccount(source.state)
	if err != nil {
		return err
	}
	destinationHolding, err := decodeHoldingAccount(destination.state)
	if err != nil {
		return err
	}

	if !bytes.Equal(sourceHolding.Mint, destinationHolding.Mint) {
		return token.ErrorMintMismatch
	}
	if !bytes.Equal(sourceHolding.Owner, authority) {
		return token.ErrorOwnerMismatch
	}
	if !ic.signed(authority, signerSeeds) {
		return solana.InstructionErrorMissingRequiredSignature
	}
	if sourceHolding.Amount < amount {
		return token.ErrorInsufficientFunds
	}

	if bytes.Equal(from, to) {
		return nil
	}
	if destinationHolding.Amount > math.MaxUint64-amount {
		return token.ErrorOverflow
	}

	sourceHolding.Amount -= amount
	destinationHolding.Amount += amount

	source.state.Data = sourceHolding.Marshal()
	destination.state.Data = destinationHolding.Marshal()
	source.dirty = true
	destination.dirty = true
	return nil
}

func (ic *invokeContext) CloseHoldingAccount(address, destination, authority ed25519.PublicKey, signerSeeds [][]byte) error {
	account, meta, err := ic.lookup(address)
	if err != nil {
		return err
	}
	recipient, recipientMeta, err := ic.lookup(destination)
	if err != nil {
		return err
	}

	if bytes.Equal(address, destination) {
		return solana.InstructionErrorInvalidArgument
	}
	if !meta.IsWritable || !recipientMeta.IsWritable {
		return solana.InstructionErrorReadonlyLamportChange
	}

	holding, err := decodeHoldingAccount(account.state)
	if err != nil {
		return err
	}

	if holding.Amount != 0 {
		return token.ErrorNonNativeHasBalance
	}

	closeAuthority := holding.Owner
	if len(holding.CloseAuthority) > 0 {
		closeAuthority = holding.CloseAuthority
	}
	if !bytes.Equal(closeAuthority, authority) {
		return token.ErrorOwnerMismatch
	}
	if !ic.signed(authority, signerSeeds) {
		return solana.InstructionErrorMissingRequiredSignature
	}

	lamports := account.state.Lamports
	account.state.Lamports = 0
	account.dirty = true
	return ic.credit(recipient, lamports, systemProgram)
}

func (ic *invokeContext) HoldingAccount(address ed25519.PublicKey) (*token.Account, error) {
	account, _, err := ic.lookup(address)
	if err != nil {
		return nil, err
	}
	return decodeHoldingAccount(account.state)
}

func (ic *invokeContext) Mint(address ed25519.PublicKey) (*token.Mint, error) {
	account, _, err := ic.lookup(address)
	if err != nil {
		return nil, err
	}
	return decodeMint(account.state)
}

// debit removes lamports from an account. Accounts owned by the invoking
// program can be debited directly, while system accounts must sign.
func (ic *invokeContext) debit(account *workingAccount, meta solana.AccountMeta, amount uint64, signerSeeds [][]byte) error {
	if !meta.IsWritable {
		return solana.InstructionErrorReadonlyLamportChange
	}

	switch {
	case ic.program != systemProgram && account.state.IsOwnedBy(ic.program):
	case !account.state.Exists() || account.state.Owner == systemProgram:
		if !ic.signed(account.key, signerSeeds) {
			return solana.InstructionErrorMissingRequiredSignature
		}
	default:
		return solana.InstructionErrorExternalAccountLamportSpend
	}

	if account.state.Lamports < amount {
		return solana.InstructionErrorInsufficientFunds
	}

	account.state.Lamports -= amount
	account.dirty = true
	return nil
}

func (ic *invokeContext) credit(account *workingAccount, amount uint64, owner string) error {
	if account.state.Lamports > math.MaxUint64-amount {
		return solana.InstructionErrorInvalidArgument
	}

	if !account.state.Exists() && amount > 0 {
		account.state.Owner = owner
		account.state.Data = nil
	}

	account.state.Lamports += amount
	account.dirty = true
	return nil
}

// signed reports whether address is a signer of the instruction, or is the
// program address the invoking program derives from signerSeeds.
func (ic *invokeContext) signed(address ed25519.PublicKey, signerSeeds [][]byte) bool {
	if ic.IsSigner(address) {
		return true
	}

	if len(signerSeeds) == 0 {
		return false
	}

	derived, err := solana.CreateProgramAddress(ic.programID, signerSeeds...)
	if err != nil {
		return false
	}
	return bytes.Equal(derived, address)
}

// meta merges the flags of every occurrence of address in the instruction's
// account list.
func (ic *invokeContext) meta(address ed25519.PublicKey) (solana.AccountMeta, bool) {
	var merged solana.AccountMeta
	var found bool
	for _, meta := range ic.metas {
		if !bytes.Equal(meta.PublicKey, address) {
			continue
		}

		found = true
		merged.PublicKey = meta.PublicKey
		merged.IsSigner = merged.IsSigner || meta.IsSigner
		merged.IsWritable = merged.IsWritable || meta.IsWritable
	}
	return merged, found
}

func (ic *invokeContext) lookup(address ed25519.PublicKey) (*workingAccount, solana.AccountMeta, error) {
	meta, ok := ic.meta(address)
	if !ok {
		return nil, meta, solana.InstructionErrorMissingAccount
	}

	account := ic.accounts.get(address)
	if account == nil {
		return nil, meta, solana.InstructionErrorMissingAccount
	}
	return account, meta, nil
}

func decodeHoldingAccount(account *Account) (*token.Account, error) {
	if !account.Exists() {
		return nil, solana.InstructionErrorUninitializedAccount
	}
	if account.Owner != tokenProgram {
		return nil, solana.InstructionErrorIncorrectProgramID
	}

	var holding token.Account
	if !holding.Unmarshal(account.Data) {
		return nil, solana.InstructionErrorInvalidAccountData
	}
	if holding.State != token.AccountStateInitialized {
		return nil, solana.InstructionErrorUninitializedAccount
	}
	return &holding, nil
}

func decodeMint(account *Account) (*token.Mint, error) {
	if !account.Exists() {
		return nil, solana.InstructionErrorUninitializedAccount
	}
	if account.Owner != tokenProgram {
		return nil, solana.InstructionErrorIncorrectProgramID
	}

	var mint token.Mint
	if !mint.Unmarshal(account.Data) {
		return nil, solana.InstructionErrorInvalidAccountData
	}
	if !mint.IsInitialized {
		return nil, solana.InstructionErrorUninitializedAccount
	}
	return &mint, nil
}
