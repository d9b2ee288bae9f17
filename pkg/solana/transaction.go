package solana

import (
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

var (
	ErrMissingSignature = errors.New("transaction is missing a signature")
	ErrInvalidSignature = errors.New("transaction signature is invalid")
)

type (
	Signature [ed25519.SignatureSize]byte
	Blockhash [sha256.Size]byte
)

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles the instructions into a legacy message with payer as
// the first signer. Signatures are left empty until Sign is called.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	m := compileMessage(payer, instructions)
	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// Signature returns the fee payer's signature, which identifies the transaction.
func (t *Transaction) Signature() []byte {
	return t.Signatures[0][:]
}

func (t *Transaction) Signers() []ed25519.PublicKey {
	return t.Message.Accounts[:t.Message.Header.NumSignatures]
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

// Sign fills in the signature slot of each signer. Signers that aren't
// required by the message are an error.
func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	message := t.Message.Marshal()
	required := t.Signers()

	for _, signer := range signers {
		pub := signer.Public().(ed25519.PublicKey)

		slot := -1
		for i, key := range required {
			if key.Equal(pub) {
				slot = i
				break
			}
		}
		if slot < 0 {
			return errors.Errorf("%s is not a required signer", base58.Encode(pub))
		}

		copy(t.Signatures[slot][:], ed25519.Sign(signer, message))
	}

	return nil
}

// Verify checks that every required signer produced a valid signature over
// the message.
func (t *Transaction) Verify() error {
	if len(t.Signatures) == 0 || len(t.Signatures) != int(t.Message.Header.NumSignatures) {
		return ErrMissingSignature
	}
	if len(t.Message.Accounts) < len(t.Signatures) {
		return ErrMissingSignature
	}

	var empty Signature
	message := t.Message.Marshal()
	for i, signature := range t.Signatures {
		if signature == empty {
			return ErrMissingSignature
		}
		if !ed25519.Verify(t.Message.Accounts[i], message, signature[:]) {
			return ErrInvalidSignature
		}
	}

	return nil
}
