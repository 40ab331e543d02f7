package simpleupload

import (
	"fmt"

	"github.com/tendant/simple-upload/pkg/simpleupload/postpolicy"
)

// State is a step of authorizing one upload
type State int

const (
	StateIdle State = iota
	StateRuleSelected
	StateValidated
	StateKeyBuilt
	StatePolicyAssembled
	StateSigned
	StateComplete
	StateRejected
)

var stateNames = [...]string{
	StateIdle:            "idle",
	StateRuleSelected:    "rule_selected",
	StateValidated:       "validated",
	StateKeyBuilt:        "key_built",
	StatePolicyAssembled: "policy_assembled",
	StateSigned:          "signed",
	StateComplete:        "complete",
	StateRejected:        "rejected",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// presign carries one request through the states. Steps must run in order;
// reading a value before the step that produces it is a programming error
// and panics.
type presign struct {
	state  State
	rule   *Rule
	upload *UploadContext
	policy *Policy
	post   *postpolicy.Post
}

func (p *presign) advance(to State) {
	next := p.state + 1
	if to == StateRejected {
		next = StateRejected
		if p.state != StateRuleSelected {
			panic(fmt.Sprintf("simpleupload: cannot reject from state %s", p.state))
		}
	}
	if to != next {
		panic(fmt.Sprintf("simpleupload: invalid transition %s -> %s", p.state, to))
	}
	p.state = to
}

func (p *presign) selected(rule *Rule) {
	p.rule = rule
	p.advance(StateRuleSelected)
}

func (p *presign) reject() {
	p.advance(StateRejected)
}

func (p *presign) validated(uc UploadContext) {
	p.upload = &uc
	p.advance(StateValidated)
}

func (p *presign) keyBuilt(uc UploadContext) {
	p.upload = &uc
	p.advance(StateKeyBuilt)
}

func (p *presign) assembled(policy Policy) {
	p.policy = &policy
	p.advance(StatePolicyAssembled)
}

func (p *presign) signed(post *postpolicy.Post) {
	p.post = post
	p.advance(StateSigned)
}

func (p *presign) complete() {
	p.advance(StateComplete)
}

// file returns the upload context, panicking with ErrFileNotSet before validation
func (p *presign) file() UploadContext {
	if p.upload == nil {
		panic(ErrFileNotSet)
	}
	return *p.upload
}

// presigned returns the signed post, panicking with ErrPresignNotGenerated before signing
func (p *presign) presigned() *postpolicy.Post {
	if p.post == nil {
		panic(ErrPresignNotGenerated)
	}
	return p.post
}
