package ledger

// WithTestOverrides exposes manual config overrides to the external test
// package.
func WithTestOverrides(lamportsPerSignature, lockStripes uint64) ConfigProvider {
	return withManualTestOverrides(&testOverrides{
		lamportsPerSignature: lamportsPerSignature,
		lockStripes:          lockStripes,
	})
}
