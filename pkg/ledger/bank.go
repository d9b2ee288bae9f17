package ledger

import (
	"context"
	"crypto/ed25519"
	"sync"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/database/query"
	"github.com/code-payments/custody-server/pkg/metrics"
	"github.com/code-payments/custody-server/pkg/solana"
	"github.com/code-payments/custody-server/pkg/solana/system"
	"github.com/code-payments/custody-server/pkg/solana/token"
	sync_util "github.com/code-payments/custody-server/pkg/sync"
)

const (
	metricsStructName = "ledger.bank"
)

// Bank executes transactions against the accounts in a Store. Each transaction
// is applied all or nothing: programs mutate an in memory working set, and the
// modified accounts are committed in a single atomic Store call.
type Bank struct {
	log   *logrus.Entry
	conf  *conf
	store Store

	locks      *sync_util.StripedLock
	signatures *signatureFilter

	processorsMu sync.RWMutex
	processors   map[string]Processor
}

// NewBank returns a Bank with the native system and token programs registered.
func NewBank(store Store, configProvider ConfigProvider) *Bank {
	conf := configProvider()
	ctx := context.Background()

	b := &Bank{
		log:        logrus.StandardLogger().WithField("type", "ledger/bank"),
		conf:       conf,
		store:      store,
		locks:      sync_util.NewStripedLock(uint(conf.lockStripes.Get(ctx))),
		signatures: newSignatureFilter(uint(conf.signatureFilterSize.Get(ctx))),
		processors: make(map[string]Processor),
	}

	b.RegisterProgram(system.ProgramKey, ProcessorFunc(processSystemInstruction))
	b.RegisterProgram(token.ProgramKey, ProcessorFunc(processTokenInstruction))

	return b
}

// RegisterProgram routes instructions addressed to id to the processor.
func (b *Bank) RegisterProgram(id ed25519.PublicKey, processor Processor) {
	b.processorsMu.Lock()
	defer b.processorsMu.Unlock()

	b.processors[base58.Encode(id)] = processor
}

func (b *Bank) Rent(ctx context.Context) Rent {
	return Rent{
		LamportsPerByteYear: b.conf.rentLamportsPerByteYear.Get(ctx),
		ExemptionThreshold:  b.conf.rentExemptionThreshold.Get(ctx),
	}
}

// Fee is the fee charged to the payer of a committed transaction.
func (b *Bank) Fee(ctx context.Context, txn *solana.Transaction) uint64 {
	return b.conf.lamportsPerSignature.Get(ctx) * uint64(txn.Message.Header.NumSignatures)
}

// Execute runs a signed transaction and returns its signature. Rejections are
// reported as *solana.TransactionError. ErrStaleAccount is returned when a
// concurrent writer committed first, in which case nothing was applied and the
// transaction can be rebuilt and retried.
func (b *Bank) Execute(ctx context.Context, txn solana.Transaction) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Execute")
	defer tracer.End()

	signature, err := b.execute(ctx, &txn)
	tracer.OnError(err, ErrStaleAccount)
	return signature, err
}

func (b *Bank) execute(ctx context.Context, txn *solana.Transaction) (string, error) {
	if len(txn.Signatures) == 0 {
		return "", solana.NewTransactionError(solana.TransactionErrorMissingSignatureForFee)
	}

	signature := base58.Encode(txn.Signature())
	log := b.log.WithFields(logrus.Fields{
		"method":       "Execute",
		"execution_id": uuid.New().String(),
		"signature":    signature,
	})

	if err := sanitize(&txn.Message); err != nil {
		log.WithError(err).Info("transaction failed sanitization")
		return signature, err
	}

	if err := txn.Verify(); err != nil {
		log.WithError(err).Info("transaction failed signature verification")
		return signature, solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
	}

	if b.signatures.contains(txn.Signature()) {
		return signature, solana.NewTransactionError(solana.TransactionErrorDuplicateSignature)
	}

	var writable, readonly [][]byte
	for i, key := range txn.Message.Accounts {
		if txn.Message.IsWritable(i) {
			writable = append(writable, key)
		} else {
			readonly = append(readonly, key)
		}
	}

	unlock := b.locks.LockAll(writable, readonly)
	defer unlock()

	// The fee payer is always write locked, so a replay of the same
	// transaction observes the first execution here.
	if b.signatures.contains(txn.Signature()) {
		return signature, solana.NewTransactionError(solana.TransactionErrorDuplicateSignature)
	}

	accounts, err := b.load(ctx, txn.Message.Accounts)
	if err != nil {
		log.WithError(err).Warn("failure loading accounts")
		return signature, err
	}

	payer := accounts.get(txn.Message.Accounts[0])
	if !payer.state.Exists() {
		return signature, solana.NewTransactionError(solana.TransactionErrorAccountNotFound)
	}

	fee := b.Fee(ctx, txn)
	if payer.state.Lamports < fee {
		return signature, solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	}
	payer.state.Lamports -= fee
	payer.dirty = true

	rent := b.Rent(ctx)
	for i := range txn.Message.Instructions {
		ixn, err := txn.Message.DecompileInstruction(i)
		if err != nil {
			return signature, solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}

		program := base58.Encode(ixn.Program)
		processor, ok := b.processor(program)
		if !ok {
			log.WithField("program", program).Info("transaction invokes an unknown program")
			return signature, solana.NewTransactionError(solana.TransactionErrorProgramAccountNotFound)
		}

		ic := newInvokeContext(ixn.Program, rent, accounts, ixn.Accounts)
		if err := processor.Process(ic, ixn); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"program":     program,
				"instruction": i,
			}).Info("instruction rejected")

			return signature, solana.TransactionErrorFromInstructionError(&solana.InstructionError{
				Index: i,
				Err:   err,
			})
		}
	}

	accounts.finalize()

	if err := checkRentState(rent, accounts); err != nil {
		log.WithError(err).Info("transaction leaves a rent paying account")
		return signature, err
	}

	if err := checkConservation(accounts, fee); err != nil {
		log.WithError(err).Warn("transaction does not conserve lamports")
		return signature, err
	}

	if err := b.store.Commit(ctx, accounts.modified()...); err != nil {
		if err == ErrStaleAccount {
			log.Debug("transaction lost a commit race")
			return signature, err
		}

		log.WithError(err).Warn("failure committing accounts")
		return signature, errors.Wrap(err, "error committing accounts")
	}

	b.signatures.add(txn.Signature())

	log.Debug("transaction executed")
	return signature, nil
}

func (b *Bank) processor(program string) (Processor, bool) {
	b.processorsMu.RLock()
	defer b.processorsMu.RUnlock()

	processor, ok := b.processors[program]
	return processor, ok
}

func (b *Bank) load(ctx context.Context, keys []ed25519.PublicKey) (*workingSet, error) {
	accounts := newWorkingSet()
	for _, key := range keys {
		address := base58.Encode(key)

		record, err := b.store.Get(ctx, address)
		if err == ErrAccountNotFound {
			record = &Account{Address: address}
		} else if err != nil {
			return nil, errors.Wrapf(err, "error loading account %s", address)
		}

		accounts.add(key, record)
	}
	return accounts, nil
}

// GetAccount gets the committed state of an account.
func (b *Bank) GetAccount(ctx context.Context, address ed25519.PublicKey) (*Account, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetAccount")
	defer tracer.End()

	account, err := b.store.Get(ctx, base58.Encode(address))
	tracer.OnError(err, ErrAccountNotFound)
	return account, err
}

// GetBalance gets the lamport balance of an account, which is zero for
// accounts that don't exist.
func (b *Bank) GetBalance(ctx context.Context, address ed25519.PublicKey) (uint64, error) {
	account, err := b.GetAccount(ctx, address)
	if err == ErrAccountNotFound {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return account.Lamports, nil
}

// GetTokenAccount gets and decodes a token holding account.
func (b *Bank) GetTokenAccount(ctx context.Context, address ed25519.PublicKey) (*token.Account, error) {
	account, err := b.GetAccount(ctx, address)
	if err != nil {
		return nil, err
	}

	holding, err := decodeHoldingAccount(account)
	if err != nil {
		return nil, ErrInvalidAccount
	}
	return holding, nil
}

// GetMint gets and decodes a token mint.
func (b *Bank) GetMint(ctx context.Context, address ed25519.PublicKey) (*token.Mint, error) {
	account, err := b.GetAccount(ctx, address)
	if err != nil {
		return nil, err
	}

	mint, err := decodeMint(account)
	if err != nil {
		return nil, ErrInvalidAccount
	}
	return mint, nil
}

// GetProgramAccounts gets a page of accounts owned by program.
func (b *Bank) GetProgramAccounts(ctx context.Context, program ed25519.PublicKey, opts ...query.Option) ([]*Account, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetProgramAccounts")
	defer tracer.End()

	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	accounts, err := b.store.GetProgramAccounts(ctx, base58.Encode(program), req.Cursor, req.Limit, req.SortBy)
	tracer.OnError(err, ErrAccountNotFound)
	return accounts, err
}

func sanitize(m *solana.Message) error {
	header := m.Header
	if header.NumSignatures == 0 || int(header.NumSignatures) > len(m.Accounts) {
		return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
	}
	if header.NumReadonlySigned >= header.NumSignatures {
		return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
	}
	if int(header.NumSignatures)+int(header.NumReadOnly) > len(m.Accounts) {
		return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
	}

	seen := make(map[string]struct{})
	for _, account := range m.Accounts {
		if len(account) != ed25519.PublicKeySize {
			return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}
		if _, ok := seen[string(account)]; ok {
			return solana.NewTransactionError(solana.TransactionErrorAccountLoadedTwice)
		}
		seen[string(account)] = struct{}{}
	}

	for _, ixn := range m.Instructions {
		if ixn.ProgramIndex == 0 || int(ixn.ProgramIndex) >= len(m.Accounts) {
			return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}
		for _, index := range ixn.Accounts {
			if int(index) >= len(m.Accounts) {
				return solana.NewTransactionError(solana.TransactionErrorInvalidAccountIndex)
			}
		}
	}

	return nil
}

// checkRentState rejects transactions that leave an account below its rent
// exempt minimum, unless it was already rent paying before.
func checkRentState(rent Rent, accounts *workingSet) error {
	for _, account := range accounts.accounts {
		if !account.dirty || !account.state.Exists() {
			continue
		}

		if rent.IsExempt(account.state.Lamports, uint64(len(account.state.Data))) {
			continue
		}

		wasRentPaying := account.original.Exists() &&
			!rent.IsExempt(account.original.Lamports, uint64(len(account.original.Data)))
		if wasRentPaying && account.state.Lamports <= account.original.Lamports {
			continue
		}

		return solana.NewTransactionError(solana.TransactionErrorInvalidRentPayingAccount)
	}
	return nil
}

func checkConservation(accounts *workingSet, fee uint64) error {
	before, overflow := accounts.totalLamports(false)
	if overflow {
		return solana.NewTransactionError(solana.TransactionErrorUnbalancedTransaction)
	}

	after, overflow := accounts.totalLamports(true)
	if overflow || after+fee != before {
		return solana.NewTransactionError(solana.TransactionErrorUnbalancedTransaction)
	}
	return nil
}
