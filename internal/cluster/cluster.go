package cluster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cosmez/keyparse-go/internal/command"
	"github.com/cosmez/keyparse-go/internal/resp"
)

var (
	// ErrCrossSlot is returned when the keys of one request hash to more than
	// one slot and the request cannot be split.
	ErrCrossSlot = errors.New("cluster: keys in request don't hash to the same slot")
	// ErrNotParsed is returned for commands whose parse did not succeed.
	ErrNotParsed = errors.New("cluster: command was not parsed successfully")
)

// Assign sets c.Slot when every key of c hashes to the same slot. Commands
// without keys keep slot -1.
func Assign(c *command.Command) error {
	if err := routable(c); err != nil {
		return err
	}
	c.Slot = -1
	for i := range c.Keys {
		s := Slot(c.Key(i))
		if c.Slot >= 0 && s != c.Slot {
			c.Slot = -1
			return fmt.Errorf("command %d (%s): %w", c.ID, c.Type, ErrCrossSlot)
		}
		c.Slot = s
	}
	return nil
}

// Split routes a multi-key command whose keys span several slots. It builds
// one sub-command per slot, in order of first appearance, holding that
// slot's keys in wire order (each with its value for key/value commands).
// The sub-commands are parsed with p, assigned their slot and attached to c,
// and c.FragSeq maps each key index of c to the sub-command carrying it.
//
// A command whose keys already share a slot is only assigned. Commands that
// are not a plain key vector or key/value vector return ErrCrossSlot.
func Split(a *command.Allocator, p *command.Parser, c *command.Command) error {
	if len(c.SubCommands) > 0 {
		return nil
	}
	err := Assign(c)
	if !errors.Is(err, ErrCrossSlot) {
		return err
	}

	class := c.Arity()
	if class != command.ArityVectorKeys && class != command.ArityVectorKV {
		return err
	}

	name := []byte(strings.ToUpper(command.Caption(c.Type)))
	var (
		groups  [][][]byte
		bySlot  = make(map[int]int)
		fragSeq = make([]int, len(c.Keys))
	)
	for i := range c.Keys {
		key := c.Key(i)
		s := Slot(key)
		idx, ok := bySlot[s]
		if !ok {
			idx = len(groups)
			bySlot[s] = idx
			groups = append(groups, [][]byte{name})
		}
		groups[idx] = append(groups[idx], key)
		if class == command.ArityVectorKV {
			groups[idx] = append(groups[idx], valueAfter(c.Raw, c.Keys[i]))
		}
		fragSeq[i] = idx
	}

	subs := make([]*command.Command, 0, len(groups))
	discard := func() {
		for _, sub := range subs {
			_ = a.Release(sub)
		}
	}
	for _, args := range groups {
		sub := a.New(resp.EncodeRequest(args))
		subs = append(subs, sub)
		if err := p.Parse(sub); err != nil {
			discard()
			return fmt.Errorf("split command %d: %w", c.ID, err)
		}
		if err := Assign(sub); err != nil {
			discard()
			return fmt.Errorf("split command %d: %w", c.ID, err)
		}
	}
	for _, sub := range subs {
		if err := c.AddSubCommand(sub); err != nil {
			return err
		}
	}
	c.FragSeq = fragSeq
	return nil
}

func routable(c *command.Command) error {
	if c.Released() {
		return command.ErrReleased
	}
	if c.Result != command.ResultOK || c.Type == command.TypeUnknown {
		return ErrNotParsed
	}
	return nil
}

// valueAfter returns the bulk string that follows key k in a request the
// parser has already validated.
func valueAfter(raw []byte, k command.KeyPosition) []byte {
	p := k.End + 3 // CR LF '$'
	n := 0
	for ; raw[p] != '\r'; p++ {
		n = n*10 + int(raw[p]-'0')
	}
	p += 2
	return raw[p : p+n]
}
