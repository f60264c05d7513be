package referral

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource []string

func (s staticSource) ListReferralCodes(_ context.Context) ([]string, error) {
	return s, nil
}

func TestFilter_LoadAndTest(t *testing.T) {
	f := NewFilter()
	require.NoError(t, f.Load(context.Background(), staticSource{"FRIEND", "WELCOME"}))

	assert.True(t, f.MightContain("FRIEND"))
	assert.True(t, f.MightContain("WELCOME"))
	assert.False(t, f.MightContain("definitely-not-issued-code"))
}

func TestFilter_Add(t *testing.T) {
	f := NewFilter()
	assert.False(t, f.MightContain("NEWCODE"))
	f.Add("NEWCODE")
	assert.True(t, f.MightContain("NEWCODE"))
}

func TestFilter_LoadReplaces(t *testing.T) {
	f := NewFilter()
	f.Add("OLDCODE")
	require.NoError(t, f.Load(context.Background(), staticSource{"FRESH"}))

	assert.True(t, f.MightContain("FRESH"))
	assert.False(t, f.MightContain("OLDCODE"))
}
