package passes

import (
	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/directive"
	"github.com/aledsdavies/weave/core/pipeline"
)

// Pairing links directives that declare followers (if, foreach) to the
// nearest following sibling directive they accept (elseif/else, empty).
//
// Intervening siblings of any kind are skipped, except that the search stops
// at a directive accepting one of the same followers: a second if starts a
// chain of its own. A follower that declares followers itself stays a leader
// and is not consumed; any other follower is consumed and compiled only
// through its leader. The search never leaves the parent's children list.
type Pairing struct {
	pipeline.Base
	Settings
}

func (*Pairing) Name() string { return "directive-pairing" }

func (p *Pairing) Before(v *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
	c, ok := n.(ast.Container)
	if !ok {
		return pipeline.None(), nil
	}
	p.pair(c.Children())
	return pipeline.None(), nil
}

func (p *Pairing) pair(kids []ast.Node) {
	for i, child := range kids {
		leader, ok := child.(*ast.Directive)
		if !ok || leader.Consumed || leader.Paired != nil {
			continue
		}
		entry, ok := p.Registry.Lookup(leader.Name)
		if !ok {
			continue
		}
		if _, pairs := entry.IsPairing(); !pairs {
			continue
		}

		for _, next := range kids[i+1:] {
			cand, ok := next.(*ast.Directive)
			if !ok {
				continue
			}
			if entry.Pairs(cand.Name) && cand.LedBy == nil {
				leader.Paired = cand
				cand.LedBy = leader
				if fe, ok := p.Registry.Lookup(cand.Name); !ok || len(fe.Followers) == 0 {
					cand.Consumed = true
				}
				break
			}
			if p.rival(entry.Descriptor, cand) {
				break
			}
		}
	}
}

// rival reports whether cand could claim one of the leader's followers, in
// which case it starts a chain of its own.
func (p *Pairing) rival(leader directive.Descriptor, cand *ast.Directive) bool {
	e, ok := p.Registry.Lookup(cand.Name)
	if !ok {
		return false
	}
	for _, f := range e.Followers {
		if leader.Pairs(f) {
			return true
		}
	}
	return false
}
