package news

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerAdmitOnce(t *testing.T) {
	ledger := NewLedger(10)

	assert.True(t, ledger.Admit("https://example.com/a"))
	assert.False(t, ledger.Admit("https://example.com/a"))
	assert.True(t, ledger.Contains("https://example.com/a"))
	assert.Equal(t, 1, ledger.Len())
}

func TestLedgerBoundedEviction(t *testing.T) {
	ledger := NewLedger(3)

	for i := 0; i < 3; i++ {
		assert.True(t, ledger.Admit(fmt.Sprintf("id-%d", i)))
	}
	assert.Equal(t, 3, ledger.Len())

	// Inserting a fourth evicts the oldest
	assert.True(t, ledger.Admit("id-3"))
	assert.Equal(t, 3, ledger.Len())
	assert.False(t, ledger.Contains("id-0"))
	assert.True(t, ledger.Contains("id-1"))
	assert.True(t, ledger.Contains("id-3"))

	// The evicted identifier is admissible again
	assert.True(t, ledger.Admit("id-0"))
}

func TestLedgerEvictionOrder(t *testing.T) {
	ledger := NewLedger(2)

	ledger.Admit("a")
	ledger.Admit("b")
	ledger.Admit("c")
	ledger.Admit("d")

	assert.False(t, ledger.Contains("a"))
	assert.False(t, ledger.Contains("b"))
	assert.True(t, ledger.Contains("c"))
	assert.True(t, ledger.Contains("d"))
}
