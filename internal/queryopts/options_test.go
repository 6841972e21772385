package queryopts_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"graphkb-api/internal/kbconfig"
	"graphkb-api/internal/queryopts"
	"graphkb-api/testutil"
)

func normalize(t *testing.T, raw map[string]interface{}) (*queryopts.Options, error) {
	t.Helper()
	s := testutil.Schema()
	return queryopts.Normalize(raw, s, "Disease", kbconfig.DefaultLimits())
}

func TestLimitBoundaries(t *testing.T) {
	require := require.New(t)

	_, err := normalize(t, map[string]interface{}{"limit": 1001})
	require.Error(err)

	_, err = normalize(t, map[string]interface{}{"limit": 0})
	require.Error(err)

	opts, err := normalize(t, map[string]interface{}{"limit": 1000})
	require.NoError(err)
	require.Equal(1000, opts.Limit)
}

func TestNeighborsBoundaries(t *testing.T) {
	require := require.New(t)

	_, err := normalize(t, map[string]interface{}{"neighbors": 5})
	require.Error(err)

	opts, err := normalize(t, map[string]interface{}{"neighbors": 4})
	require.NoError(err)
	require.Equal(4, opts.Neighbors)
}

func TestSkipMustBeNonNegative(t *testing.T) {
	require := require.New(t)

	_, err := normalize(t, map[string]interface{}{"skip": -1})
	require.Error(err)

	opts, err := normalize(t, map[string]interface{}{"skip": 0})
	require.NoError(err)
	require.Equal(0, opts.Skip)
}

func TestHistoryCountBooleanCoercion(t *testing.T) {
	require := require.New(t)

	opts, err := normalize(t, map[string]interface{}{"history": "t", "count": "0"})
	require.NoError(err)
	require.True(opts.History)
	require.False(opts.Count)

	opts, err = normalize(t, map[string]interface{}{"history": "null"})
	require.NoError(err)
	require.False(opts.History)

	_, err = normalize(t, map[string]interface{}{"history": "maybe"})
	require.Error(err)
}

func TestOrderByDirection(t *testing.T) {
	require := require.New(t)

	opts, err := normalize(t, map[string]interface{}{"orderByDirection": "desc"})
	require.NoError(err)
	require.Equal("DESC", opts.OrderByDirection)

	_, err = normalize(t, map[string]interface{}{"orderByDirection": "sideways"})
	require.Error(err)
}

func TestOrderByCommaSplitAndValidated(t *testing.T) {
	require := require.New(t)

	opts, err := normalize(t, map[string]interface{}{"orderBy": "name, sourceId"})
	require.NoError(err)
	require.Equal([]string{"name", "sourceId"}, opts.OrderBy)

	_, err = normalize(t, map[string]interface{}{"orderBy": "bogus"})
	require.Error(err)
}

func TestReturnPropertiesAsList(t *testing.T) {
	require := require.New(t)

	opts, err := normalize(t, map[string]interface{}{"returnProperties": []interface{}{"name", "sourceId"}})
	require.NoError(err)
	require.Equal([]string{"name", "sourceId"}, opts.ReturnProperties)
}

func TestDefaultOrderByDirectionIsAsc(t *testing.T) {
	require := require.New(t)

	opts, err := normalize(t, map[string]interface{}{})
	require.NoError(err)
	require.Equal("ASC", opts.OrderByDirection)
	require.False(opts.HasLimit)
}
