package materialize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarete/pmvm"
	"github.com/clarete/pmvm/materialize"
)

func TestFromSimpleCapture(t *testing.T) {
	subject := []byte("ab")
	events := []materialize.Event{
		{S: 0, Size: 3, Kind: pmvm.KindSimple},
	}

	values, err := materialize.From(events)
	require.NoError(t, err)
	require.Len(t, values, 1)

	str, ok := values[0].(*materialize.String)
	require.True(t, ok)
	assert.Equal(t, "ab", str.String(subject))
}

func TestFromNestedGroup(t *testing.T) {
	// Group(sum) containing two children: a simple capture of "1" and
	// a nested Group(num) capturing "2" -- laid out preorder exactly
	// as the match loop appends/splices them.
	subject := []byte("1,2")
	events := []materialize.Event{
		{S: 0, Size: 4, Kind: pmvm.KindGroup, Key: 1}, // whole "1,2" group
		{S: 0, Size: 2, Kind: pmvm.KindSimple},        // "1"
		{S: 2, Size: 2, Kind: pmvm.KindGroup, Key: 2}, // "2" as nested group
	}

	values, err := materialize.From(events)
	require.NoError(t, err)
	require.Len(t, values, 1)

	group, ok := values[0].(*materialize.Group)
	require.True(t, ok)
	assert.Equal(t, uint16(1), group.Key)
	require.Len(t, group.Items, 2)

	first, ok := group.Items[0].(*materialize.String)
	require.True(t, ok)
	assert.Equal(t, "1", first.String(subject))

	second, ok := group.Items[1].(*materialize.Group)
	require.True(t, ok)
	assert.Equal(t, uint16(2), second.Key)
	require.Len(t, second.Items, 0)
}

func TestFromPositionCapture(t *testing.T) {
	events := []materialize.Event{
		{S: 5, Size: 1, Kind: pmvm.KindPosition},
	}
	values, err := materialize.From(events)
	require.NoError(t, err)
	require.Len(t, values, 1)

	pos, ok := values[0].(*materialize.Position)
	require.True(t, ok)
	assert.Equal(t, 5, pos.Range().Start)
}

func TestFromRuntimeCapture(t *testing.T) {
	events := []materialize.Event{
		{S: 0, Size: 2, Kind: pmvm.KindRuntime, Key: 7, Value: []any{"tag", 42}},
	}
	values, err := materialize.From(events)
	require.NoError(t, err)
	require.Len(t, values, 1)

	rt, ok := values[0].(*materialize.Runtime)
	require.True(t, ok)
	assert.Equal(t, uint16(7), rt.Key)
	assert.Equal(t, []any{"tag", 42}, rt.Values)
}

func TestFromRejectsUnterminatedCapture(t *testing.T) {
	events := []materialize.Event{
		{S: 0, Size: 0, Kind: pmvm.KindGroup},
	}
	_, err := materialize.From(events)
	assert.Error(t, err)
}

func TestFromMultipleTopLevelValues(t *testing.T) {
	subject := []byte("ab")
	events := []materialize.Event{
		{S: 0, Size: 2, Kind: pmvm.KindSimple},
		{S: 1, Size: 2, Kind: pmvm.KindSimple},
	}
	values, err := materialize.From(events)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "a", values[0].String(subject))
	assert.Equal(t, "b", values[1].String(subject))
}
