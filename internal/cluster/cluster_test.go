package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmez/keyparse-go/internal/command"
	"github.com/cosmez/keyparse-go/internal/resp"
)

func parsed(t *testing.T, a *command.Allocator, args ...string) *command.Command {
	t.Helper()
	c := a.New(resp.EncodeStrings(args...))
	require.NoError(t, command.Parse(c))
	return c
}

func subKeys(c *command.Command) []string {
	out := make([]string, 0, len(c.Keys))
	for _, k := range c.KeyBytes() {
		out = append(out, string(k))
	}
	return out
}

func TestAssign(t *testing.T) {
	a := command.NewAllocator()

	c := parsed(t, a, "GET", "foo")
	require.NoError(t, Assign(c))
	assert.Equal(t, 12182, c.Slot)

	c = parsed(t, a, "MGET", "{foo}a", "{foo}b", "foo")
	require.NoError(t, Assign(c))
	assert.Equal(t, 12182, c.Slot)

	c = parsed(t, a, "PING")
	require.NoError(t, Assign(c))
	assert.Equal(t, -1, c.Slot)

	c = parsed(t, a, "XADD", "s", "*", "f", "v")
	require.NoError(t, Assign(c))
	assert.Equal(t, -1, c.Slot)

	c = parsed(t, a, "MGET", "foo", "bar")
	assert.ErrorIs(t, Assign(c), ErrCrossSlot)
	assert.Equal(t, -1, c.Slot)
}

func TestAssign_NotRoutable(t *testing.T) {
	a := command.NewAllocator()

	c := a.New([]byte("*1\r\n$4\r\nPONG\r\n"))
	require.Error(t, command.Parse(c))
	assert.ErrorIs(t, Assign(c), ErrNotParsed)

	c = parsed(t, a, "GET", "foo")
	require.NoError(t, a.Release(c))
	assert.ErrorIs(t, Assign(c), command.ErrReleased)
}

func TestSplit_VectorKeys(t *testing.T) {
	a := command.NewAllocator()
	var p command.Parser
	c := parsed(t, a, "MGET", "foo", "bar", "{foo}x")

	require.NoError(t, Split(a, &p, c))
	require.Len(t, c.SubCommands, 2)
	assert.Equal(t, []int{0, 1, 0}, c.FragSeq)

	first, second := c.SubCommands[0], c.SubCommands[1]
	assert.Equal(t, "*3\r\n$4\r\nMGET\r\n$3\r\nfoo\r\n$6\r\n{foo}x\r\n", string(first.Raw))
	assert.Equal(t, []string{"foo", "{foo}x"}, subKeys(first))
	assert.Equal(t, 12182, first.Slot)
	assert.Equal(t, []string{"bar"}, subKeys(second))
	assert.Equal(t, 5061, second.Slot)
	assert.Same(t, c, first.Parent())
	assert.Equal(t, command.TypeMGet, second.Type)

	assert.Equal(t, int64(3), a.Live())
	require.NoError(t, a.Release(c))
	assert.Equal(t, int64(0), a.Live())
}

func TestSplit_VectorKVKeepsValues(t *testing.T) {
	a := command.NewAllocator()
	var p command.Parser
	c := parsed(t, a, "mset", "foo", "1", "bar", "a\r\nb", "{bar}z", "")

	require.NoError(t, Split(a, &p, c))
	require.Len(t, c.SubCommands, 2)
	assert.Equal(t, []int{0, 1, 1}, c.FragSeq)
	assert.Equal(t, string(resp.EncodeStrings("MSET", "foo", "1")), string(c.SubCommands[0].Raw))
	assert.Equal(t, string(resp.EncodeStrings("MSET", "bar", "a\r\nb", "{bar}z", "")), string(c.SubCommands[1].Raw))
	assert.Equal(t, []string{"bar", "{bar}z"}, subKeys(c.SubCommands[1]))
}

func TestSplit_SingleSlotIsOnlyAssigned(t *testing.T) {
	a := command.NewAllocator()
	c := parsed(t, a, "DEL", "{u}1", "{u}2")

	require.NoError(t, Split(a, &command.Parser{}, c))
	assert.Empty(t, c.SubCommands)
	assert.Nil(t, c.FragSeq)
	assert.Equal(t, Slot([]byte("u")), c.Slot)
}

func TestSplit_Idempotent(t *testing.T) {
	a := command.NewAllocator()
	c := parsed(t, a, "DEL", "foo", "bar")
	require.NoError(t, Split(a, &command.Parser{}, c))
	require.NoError(t, Split(a, &command.Parser{}, c))
	assert.Len(t, c.SubCommands, 2)
	assert.Equal(t, int64(3), a.Live())
}

func TestSplit_UnsplittableClass(t *testing.T) {
	a := command.NewAllocator()
	c := parsed(t, a, "EVAL", "return 1", "2", "foo", "bar")

	assert.ErrorIs(t, Split(a, &command.Parser{}, c), ErrCrossSlot)
	assert.Empty(t, c.SubCommands)
	assert.Equal(t, int64(1), a.Live())
}

func TestSplit_SubParseFailureReleasesSubs(t *testing.T) {
	a := command.NewAllocator()
	c := parsed(t, a, "DEL", "foo", "{foo}1", "{foo}2", "bar")

	err := Split(a, &command.Parser{MaxKeys: 2}, c)
	require.ErrorIs(t, err, command.ErrOutOfMemory)
	assert.Empty(t, c.SubCommands)
	assert.Nil(t, c.FragSeq)
	assert.Equal(t, int64(1), a.Live())
}
