package command

import (
	"fmt"
	"sync/atomic"
)

// Command is one client request together with everything learned about it.
//
// Raw is owned exclusively by the Command; KeyPosition values index into it
// and must not outlive it. Sub-commands are owned by their parent and are
// released with it.
type Command struct {
	ID  uint64
	Raw []byte

	NArg      int // declared argument count, command name included
	NArgStart int // offset of the '*' that opens the request
	NArgEnd   int // offset of the CR that ends the argument count

	Type   Type
	Keys   []KeyPosition
	Result Result
	Err    *ParseError // set when Result is not ResultOK

	NoForward bool // answer locally, never forward to a cluster node
	Quit      bool // close the connection after replying

	Slot int // cluster slot, -1 while unassigned

	// FragSeq maps each key index of a split command to the index of the
	// sub-command that carries it.
	FragSeq     []int
	SubCommands []*Command

	Reply any

	parent   *Command
	released bool
}

// Releaser is implemented by replies that hold resources of their own.
type Releaser interface {
	Release()
}

// Allocator creates and releases Commands. It is the single authority for
// command ids; ids are unique per Allocator and safe to draw concurrently.
type Allocator struct {
	lastID atomic.Uint64
	live   atomic.Int64
}

// NewAllocator returns an Allocator whose first id is 1.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// New returns an empty Command with a fresh id that takes ownership of raw.
func (a *Allocator) New(raw []byte) *Command {
	a.live.Add(1)
	return &Command{
		ID:     a.lastID.Add(1),
		Raw:    raw,
		Type:   TypeUnknown,
		Result: ResultOK,
		Keys:   make([]KeyPosition, 0, 1),
		Slot:   -1,
	}
}

// Live reports how many Commands from a are not yet released, sub-commands
// included.
func (a *Allocator) Live() int64 {
	return a.live.Load()
}

// Release tears c down: sub-commands first (recursively), then the reply,
// the fragment sequence, the key list and the raw buffer. A sub-command can
// only be released through its parent.
func (a *Allocator) Release(c *Command) error {
	if c == nil {
		return nil
	}
	if c.parent != nil {
		return fmt.Errorf("release command %d: %w", c.ID, ErrOwned)
	}
	return a.release(c)
}

func (a *Allocator) release(c *Command) error {
	if c.released {
		return fmt.Errorf("release command %d: %w", c.ID, ErrReleased)
	}

	// The tree is torn down completely even if a sub-command was already
	// released; the first such error is reported.
	var first error
	for _, sub := range c.SubCommands {
		if err := a.release(sub); err != nil && first == nil {
			first = err
		}
	}
	c.SubCommands = nil

	if r, ok := c.Reply.(Releaser); ok {
		r.Release()
	}
	c.Reply = nil
	c.FragSeq = nil
	c.Keys = nil
	c.Err = nil
	c.Raw = nil
	c.released = true
	a.live.Add(-1)
	return first
}

// Released reports whether c has been torn down.
func (c *Command) Released() bool { return c.released }

// Parent returns the owning command of a sub-command, or nil.
func (c *Command) Parent() *Command { return c.parent }

// AddSubCommand hands ownership of sub to c.
func (c *Command) AddSubCommand(sub *Command) error {
	switch {
	case c.released || sub.released:
		return ErrReleased
	case sub == c || sub.parent != nil:
		return fmt.Errorf("attach command %d to %d: %w", sub.ID, c.ID, ErrOwned)
	}
	sub.parent = c
	c.SubCommands = append(c.SubCommands, sub)
	return nil
}

// AttachReply stores reply on c, releasing any reply attached before.
func (c *Command) AttachReply(reply any) {
	if old, ok := c.Reply.(Releaser); ok && old != reply {
		old.Release()
	}
	c.Reply = reply
}

// Key returns the bytes of the i-th key. The slice aliases Raw.
func (c *Command) Key(i int) []byte {
	k := c.Keys[i]
	return c.Raw[k.Start:k.End]
}

// KeyBytes returns every key in wire order. The slices alias Raw.
func (c *Command) KeyBytes() [][]byte {
	keys := make([][]byte, len(c.Keys))
	for i := range c.Keys {
		keys[i] = c.Key(i)
	}
	return keys
}

// Arity returns the argument shape of the resolved command.
func (c *Command) Arity() ArityClass { return ArityOf(c.Type) }

// Diagnostic returns the parse failure text, or "" when parsing succeeded.
func (c *Command) Diagnostic() string {
	if c.Err == nil {
		return ""
	}
	return c.Err.Error()
}
