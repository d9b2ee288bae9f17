package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/custody-server/pkg/solana/shortvec"
)

// Wire format of legacy transactions:
//
//	transaction: shortvec(len) signatures[64] | message
//	message:     header[3] | shortvec(len) accounts[32] | blockhash[32] | shortvec(len) instructions
//	instruction: program index | shortvec(len) account indexes | shortvec(len) data

func (t Transaction) Marshal() []byte {
	var buf bytes.Buffer

	_, _ = shortvec.EncodeLen(&buf, len(t.Signatures))
	for _, s := range t.Signatures {
		buf.Write(s[:])
	}
	t.Message.encode(&buf)

	return buf.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	r := bytes.NewReader(b)

	count, err := shortvec.DecodeLen(r)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	t.Signatures = make([]Signature, count)
	for i := range t.Signatures {
		if _, err := io.ReadFull(r, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
	}

	return t.Message.Unmarshal(b[len(b)-r.Len():])
}

func (m Message) Marshal() []byte {
	var buf bytes.Buffer
	m.encode(&buf)
	return buf.Bytes()
}

func (m Message) encode(buf *bytes.Buffer) {
	buf.Write([]byte{m.Header.NumSignatures, m.Header.NumReadonlySigned, m.Header.NumReadOnly})

	_, _ = shortvec.EncodeLen(buf, len(m.Accounts))
	for _, account := range m.Accounts {
		buf.Write(account)
	}

	buf.Write(m.RecentBlockhash[:])

	_, _ = shortvec.EncodeLen(buf, len(m.Instructions))
	for _, ixn := range m.Instructions {
		buf.WriteByte(ixn.ProgramIndex)
		writeVec(buf, ixn.Accounts)
		writeVec(buf, ixn.Data)
	}
}

// Unmarshal decodes a legacy message. Indexes are checked against the account
// list, so a decoded message can always be decompiled.
func (m *Message) Unmarshal(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty message")
	}
	if b[0]&0x80 != 0 {
		return errors.New("versioned messages not supported")
	}

	r := bytes.NewReader(b)

	var header [3]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return errors.Wrap(err, "failed to read header")
	}
	m.Header = Header{
		NumSignatures:     header[0],
		NumReadonlySigned: header[1],
		NumReadOnly:       header[2],
	}

	count, err := shortvec.DecodeLen(r)
	if err != nil {
		return errors.Wrap(err, "failed to read account len")
	}
	m.Accounts = make([]ed25519.PublicKey, count)
	for i := range m.Accounts {
		m.Accounts[i] = make(ed25519.PublicKey, ed25519.PublicKeySize)
		if _, err := io.ReadFull(r, m.Accounts[i]); err != nil {
			return errors.Wrapf(err, "failed to read account at index %d", i)
		}
	}

	if _, err := io.ReadFull(r, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent block hash")
	}

	count, err = shortvec.DecodeLen(r)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction len")
	}
	m.Instructions = make([]CompiledInstruction, count)
	for i := range m.Instructions {
		ixn := &m.Instructions[i]

		if ixn.ProgramIndex, err = r.ReadByte(); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] program index", i)
		}
		if int(ixn.ProgramIndex) >= len(m.Accounts) {
			return errors.Errorf("program index out of range: %d:%d", i, ixn.ProgramIndex)
		}

		if ixn.Accounts, err = readVec(r); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] accounts", i)
		}
		for _, index := range ixn.Accounts {
			if int(index) >= len(m.Accounts) {
				return errors.Errorf("account index out of range: %d:%d", i, index)
			}
		}

		if ixn.Data, err = readVec(r); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data", i)
		}
	}

	return nil
}

func writeVec(buf *bytes.Buffer, b []byte) {
	_, _ = shortvec.EncodeLen(buf, len(b))
	buf.Write(b)
}

func readVec(r *bytes.Reader) ([]byte, error) {
	n, err := shortvec.DecodeLen(r)
	if err != nil {
		return nil, err
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
