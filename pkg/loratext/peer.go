package loratext

import (
	"fmt"
	"strings"
)

// Peer is a node known to this one.
type Peer struct {
	Name      string
	Reachable bool
}

// Directory maps peer names to peers. The roster is fixed for the lifetime of the node.
type Directory struct {
	self  string
	order []string
	peers map[string]*Peer
}

// ValidateName checks that name can be used as a radio address and cipher key.
func ValidateName(name string) error {
	if name == "" || name == Broadcast {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.IndexByte(name, Separator) >= 0 {
		return fmt.Errorf("%w: %q contains separator", ErrInvalidName, name)
	}
	for i := 0; i < len(name); i++ {
		if isControlByte(name[i]) {
			return fmt.Errorf("%w: %q contains control byte", ErrInvalidName, name)
		}
	}
	return nil
}

// NewDirectory builds the directory for node self from roster. self may or may not appear in roster.
func NewDirectory(self string, roster []string) (*Directory, error) {
	if err := ValidateName(self); err != nil {
		return nil, err
	}
	d := &Directory{
		self:  self,
		peers: make(map[string]*Peer, len(roster)),
	}
	for _, name := range roster {
		if err := ValidateName(name); err != nil {
			return nil, err
		}
		if _, ok := d.peers[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePeer, name)
		}
		d.peers[name] = &Peer{Name: name}
		d.order = append(d.order, name)
	}
	return d, nil
}

// Self returns this node's own name.
func (d *Directory) Self() string { return d.self }

// IsBroadcast reports whether address is the reserved broadcast address.
func (d *Directory) IsBroadcast(address string) bool { return address == Broadcast }

// IsKnown reports whether name is in the roster.
func (d *Directory) IsKnown(name string) bool {
	_, ok := d.peers[name]
	return ok
}

// Lookup returns a copy of the named peer.
func (d *Directory) Lookup(name string) (Peer, bool) {
	p, ok := d.peers[name]
	if !ok {
		return Peer{}, false
	}
	return *p, true
}

// Peers returns copies of all peers in roster order.
func (d *Directory) Peers() []Peer {
	out := make([]Peer, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, *d.peers[name])
	}
	return out
}

// MarkReachable sets the liveness flag of name. Unknown names are ignored.
// It reports whether the flag changed.
func (d *Directory) MarkReachable(name string) bool {
	return d.setReachable(name, true)
}

func (d *Directory) markUnreachable(name string) bool {
	return d.setReachable(name, false)
}

func (d *Directory) setReachable(name string, reachable bool) bool {
	p, ok := d.peers[name]
	if !ok || p.Reachable == reachable {
		return false
	}
	p.Reachable = reachable
	return true
}
