package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-server/pkg/database/query"
	"github.com/code-payments/custody-server/pkg/ledger"
)

func RunTests(t *testing.T, s ledger.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s ledger.Store){
		testHappyPath,
		testStaleVersions,
		testAtomicCommit,
		testGetProgramAccounts,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s ledger.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		start := time.Now()

		ctx := context.Background()

		expected := &ledger.Account{
			Address:  "address",
			Owner:    "owner",
			Lamports: 1_000_000,
			Data:     []byte{1, 2, 3},
		}

		_, err := s.Get(ctx, expected.Address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		require.NoError(t, s.Commit(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.EqualValues(t, 1, expected.Version)
		assert.True(t, expected.LastUpdatedAt.After(start))

		actual, err := s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, expected, actual)

		expected.Lamports = 500
		expected.Data = []byte{4, 5, 6}
		require.NoError(t, s.Commit(ctx, expected))
		assert.EqualValues(t, 2, expected.Version)

		actual, err = s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, expected, actual)

		count, err = s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		// Draining the account removes it

		expected.Lamports = 0
		expected.Owner = ""
		expected.Data = nil
		require.NoError(t, s.Commit(ctx, expected))
		assert.EqualValues(t, 0, expected.Version)

		_, err = s.Get(ctx, expected.Address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		count, err = s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		// The address can be reused

		recreated := &ledger.Account{
			Address:  expected.Address,
			Owner:    "other_owner",
			Lamports: 42,
		}
		require.NoError(t, s.Commit(ctx, recreated))
		assert.EqualValues(t, 1, recreated.Version)

		actual, err = s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, recreated, actual)
	})
}

func testStaleVersions(t *testing.T, s ledger.Store) {
	t.Run("testStaleVersions", func(t *testing.T) {
		ctx := context.Background()

		original := &ledger.Account{
			Address:  "address",
			Owner:    "owner",
			Lamports: 100,
		}
		require.NoError(t, s.Commit(ctx, original))

		// Inserting over an existing account is stale

		duplicate := &ledger.Account{
			Address:  original.Address,
			Owner:    "owner",
			Lamports: 200,
		}
		assert.Equal(t, ledger.ErrStaleAccount, s.Commit(ctx, duplicate))

		// Two writers load the same version, and only the first commits

		first, err := s.Get(ctx, original.Address)
		require.NoError(t, err)
		second, err := s.Get(ctx, original.Address)
		require.NoError(t, err)

		first.Lamports = 150
		require.NoError(t, s.Commit(ctx, first))

		second.Lamports = 50
		assert.Equal(t, ledger.ErrStaleAccount, s.Commit(ctx, second))

		actual, err := s.Get(ctx, original.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 150, actual.Lamports)

		// Updating or deleting an account that no longer exists is stale

		stale := actual.Clone()
		actual.Lamports = 0
		actual.Owner = ""
		require.NoError(t, s.Commit(ctx, actual))

		stale.Lamports = 10
		assert.Equal(t, ledger.ErrStaleAccount, s.Commit(ctx, stale))

		stale.Lamports = 0
		stale.Owner = ""
		assert.Equal(t, ledger.ErrStaleAccount, s.Commit(ctx, stale))

		// Draining an account that was never stored is a no-op

		require.NoError(t, s.Commit(ctx, &ledger.Account{Address: "never_stored"}))
		_, err = s.Get(ctx, "never_stored")
		assert.Equal(t, ledger.ErrAccountNotFound, err)
	})
}

func testAtomicCommit(t *testing.T, s ledger.Store) {
	t.Run("testAtomicCommit", func(t *testing.T) {
		ctx := context.Background()

		a := &ledger.Account{Address: "a", Owner: "owner", Lamports: 100}
		b := &ledger.Account{Address: "b", Owner: "owner", Lamports: 100}
		require.NoError(t, s.Commit(ctx, a, b))

		staleB := b.Clone()
		b.Lamports = 150
		require.NoError(t, s.Commit(ctx, b))

		// The first account is valid, but the batch fails on the second

		a.Lamports = 50
		staleB.Lamports = 150
		c := &ledger.Account{Address: "c", Owner: "owner", Lamports: 1}
		assert.Equal(t, ledger.ErrStaleAccount, s.Commit(ctx, a, c, staleB))

		actual, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.EqualValues(t, 100, actual.Lamports)
		assert.EqualValues(t, 1, actual.Version)

		_, err = s.Get(ctx, "c")
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		invalid := &ledger.Account{Address: "d", Lamports: 1}
		assert.Error(t, s.Commit(ctx, invalid))
	})
}

func testGetProgramAccounts(t *testing.T, s ledger.Store) {
	t.Run("testGetProgramAccounts", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetProgramAccounts(ctx, "program", query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		var expected []*ledger.Account
		for i := 0; i < 10; i++ {
			owner := "program"
			if i%2 == 1 {
				owner = "other_program"
			}

			account := &ledger.Account{
				Address:  fmt.Sprintf("account%d", i),
				Owner:    owner,
				Lamports: uint64(i + 1),
				Data:     []byte{byte(i)},
			}
			require.NoError(t, s.Commit(ctx, account))

			if owner == "program" {
				expected = append(expected, account)
			}
		}

		actual, err := s.GetProgramAccounts(ctx, "program", query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, len(expected))
		for i := range expected {
			assertEquivalentRecords(t, expected[i], actual[i])
		}

		actual, err = s.GetProgramAccounts(ctx, "program", query.EmptyCursor, 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, len(expected))
		for i := range expected {
			assertEquivalentRecords(t, expected[len(expected)-1-i], actual[i])
		}

		actual, err = s.GetProgramAccounts(ctx, "program", query.ToCursor(expected[1].Id), 2, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assertEquivalentRecords(t, expected[2], actual[0])
		assertEquivalentRecords(t, expected[3], actual[1])

		actual, err = s.GetProgramAccounts(ctx, "program", query.ToCursor(expected[1].Id), 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assertEquivalentRecords(t, expected[0], actual[0])

		_, err = s.GetProgramAccounts(ctx, "program", query.ToCursor(expected[len(expected)-1].Id), 10, query.Ascending)
		assert.Equal(t, ledger.ErrAccountNotFound, err)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *ledger.Account) {
	assert.Equal(t, obj1.Id, obj2.Id)
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Owner, obj2.Owner)
	assert.Equal(t, obj1.Lamports, obj2.Lamports)
	assert.Equal(t, obj1.Data, obj2.Data)
	assert.Equal(t, obj1.Version, obj2.Version)
}
