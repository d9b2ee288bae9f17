package ledger

// accountStorageOverhead is charged for every account on top of its data size.
//
// Reference: https://github.com/solana-labs/solana/blob/master/sdk/program/src/rent.rs
const accountStorageOverhead = 128

type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  uint64
}

// MinimumBalance is the lamport balance an account of the provided data size
// needs to be rent exempt.
func (r Rent) MinimumBalance(dataSize uint64) uint64 {
	return (accountStorageOverhead + dataSize) * r.LamportsPerByteYear * r.ExemptionThreshold
}

func (r Rent) IsExempt(lamports, dataSize uint64) bool {
	return lamports >= r.MinimumBalance(dataSize)
}
