package solana

import (
	"bytes"
	"crypto/ed25519"
	"sort"
)

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

// Message is a legacy message. Accounts are ordered as writable signers,
// readonly signers, writable non-signers and then readonly non-signers, which
// the header counts describe.
type Message struct {
	Header          Header
	Accounts        []ed25519.PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

// messageAccount is an account being placed into a message, with the union
// of the permissions every instruction requested for it.
type messageAccount struct {
	AccountMeta

	payer   bool
	program bool
}

// rank orders accounts by class: the payer, then writable signers, readonly
// signers, writable and readonly accounts. Within a class programs follow the
// other accounts, and ties are broken by key. The header can only describe
// this layout if the class boundaries are respected.
//
// Reference: https://docs.solana.com/transaction#account-addresses-format
func (a *messageAccount) rank() int {
	if a.payer {
		return 0
	}

	var class int
	switch {
	case a.IsSigner && a.IsWritable:
		class = 1
	case a.IsSigner:
		class = 2
	case a.IsWritable:
		class = 3
	default:
		class = 4
	}

	if a.program {
		return 2*class + 1
	}
	return 2 * class
}

func compileMessage(payer ed25519.PublicKey, instructions []Instruction) Message {
	byKey := make(map[string]*messageAccount)
	var ordered []*messageAccount

	// The first reference to a key decides whether it's treated as a program.
	// Later references can only widen signer and writable permissions.
	merge := func(meta AccountMeta, isPayer, isProgram bool) {
		existing, ok := byKey[string(meta.PublicKey)]
		if !ok {
			account := &messageAccount{AccountMeta: meta, payer: isPayer, program: isProgram}
			byKey[string(meta.PublicKey)] = account
			ordered = append(ordered, account)
			return
		}

		existing.IsSigner = existing.IsSigner || meta.IsSigner
		existing.IsWritable = existing.IsWritable || meta.IsWritable
		existing.payer = existing.payer || isPayer
	}

	merge(AccountMeta{PublicKey: payer, IsSigner: true, IsWritable: true}, true, false)
	for _, ixn := range instructions {
		merge(AccountMeta{PublicKey: ixn.Program}, false, true)
		for _, meta := range ixn.Accounts {
			merge(meta, false, false)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := ordered[i].rank(), ordered[j].rank()
		if ri != rj {
			return ri < rj
		}
		return bytes.Compare(ordered[i].PublicKey, ordered[j].PublicKey) < 0
	})

	var m Message
	index := make(map[string]byte, len(ordered))
	for i, account := range ordered {
		index[string(account.PublicKey)] = byte(i)

		key := account.PublicKey
		if len(key) == 0 {
			key = make(ed25519.PublicKey, ed25519.PublicKeySize)
		}
		m.Accounts = append(m.Accounts, key)

		switch {
		case account.IsSigner:
			m.Header.NumSignatures++
			if !account.IsWritable {
				m.Header.NumReadonlySigned++
			}
		case !account.IsWritable:
			m.Header.NumReadOnly++
		}
	}

	for _, ixn := range instructions {
		compiled := CompiledInstruction{
			ProgramIndex: index[string(ixn.Program)],
			Accounts:     make([]byte, len(ixn.Accounts)),
			Data:         ixn.Data,
		}
		for i, meta := range ixn.Accounts {
			compiled.Accounts[i] = index[string(meta.PublicKey)]
		}
		m.Instructions = append(m.Instructions, compiled)
	}

	return m
}

// DecompileInstruction resolves the compiled instruction at index back into an
// Instruction, with signer and writable flags taken from the message header.
func (m Message) DecompileInstruction(index int) (Instruction, error) {
	if index < 0 || index >= len(m.Instructions) {
		return Instruction{}, ErrIncorrectInstruction
	}

	compiled := m.Instructions[index]
	if int(compiled.ProgramIndex) >= len(m.Accounts) {
		return Instruction{}, ErrIncorrectProgram
	}

	accounts := make([]AccountMeta, len(compiled.Accounts))
	for i, accountIndex := range compiled.Accounts {
		if int(accountIndex) >= len(m.Accounts) {
			return Instruction{}, ErrIncorrectInstruction
		}

		accounts[i] = AccountMeta{
			PublicKey:  m.Accounts[accountIndex],
			IsSigner:   m.IsSigner(int(accountIndex)),
			IsWritable: m.IsWritable(int(accountIndex)),
		}
	}

	return Instruction{
		Program:  m.Accounts[compiled.ProgramIndex],
		Accounts: accounts,
		Data:     compiled.Data,
	}, nil
}

// IsSigner reports whether the account at index is required to sign the message.
func (m Message) IsSigner(index int) bool {
	return index < int(m.Header.NumSignatures)
}

// IsWritable reports whether the account at index was declared writable.
func (m Message) IsWritable(index int) bool {
	numSigned := int(m.Header.NumSignatures)
	if index < numSigned {
		return index < numSigned-int(m.Header.NumReadonlySigned)
	}
	return index < len(m.Accounts)-int(m.Header.NumReadOnly)
}
