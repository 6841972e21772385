package kbexec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"graphkb-api/internal/kbexec"
)

func TestParseRecordID(t *testing.T) {
	require := require.New(t)

	id, err := kbexec.ParseRecordID("#13:1")
	require.NoError(err)
	require.Equal(int64(13), id.Cluster)
	require.Equal(int64(1), id.Position)
	require.Equal("#13:1", id.String())
	require.False(id.Abstract())
}

func TestParseRecordIDAbstract(t *testing.T) {
	require := require.New(t)

	id, err := kbexec.ParseRecordID("#-1:4")
	require.NoError(err)
	require.True(id.Abstract())
}

func TestParseRecordIDMalformed(t *testing.T) {
	require := require.New(t)

	for _, bad := range []string{"13:1", "#13", "#13:", "#:1", "#a:b"} {
		_, err := kbexec.ParseRecordID(bad)
		require.Errorf(err, "expected error for %q", bad)
	}
}

func TestParseRecordIDListOrderPreserved(t *testing.T) {
	require := require.New(t)

	ids, err := kbexec.ParseRecordIDList([]string{"#13:1", "#13:2", "#13:3"})
	require.NoError(err)
	require.Len(ids, 3)
	require.Equal(int64(1), ids[0].Position)
	require.Equal(int64(3), ids[2].Position)
}

func TestParseRecordIDListRejectsEmpty(t *testing.T) {
	require := require.New(t)

	_, err := kbexec.ParseRecordIDList(nil)
	require.Error(err)
}
