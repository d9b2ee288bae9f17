package ledger

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestWithFileConfigs(t *testing.T) {
	ctx := context.Background()

	v := viper.New()
	v.Set("ledger.lamports_per_signature", "10000")
	v.Set("ledger.rent_exemption_threshold", 3)

	conf := WithFileConfigs(v)()
	assert.EqualValues(t, 10000, conf.lamportsPerSignature.Get(ctx))
	assert.EqualValues(t, 3, conf.rentExemptionThreshold.Get(ctx))
	assert.EqualValues(t, defaultLockStripes, conf.lockStripes.Get(ctx))
	assert.EqualValues(t, defaultRentLamportsPerByteYear, conf.rentLamportsPerByteYear.Get(ctx))
	assert.EqualValues(t, defaultSignatureFilterSize, conf.signatureFilterSize.Get(ctx))
}
