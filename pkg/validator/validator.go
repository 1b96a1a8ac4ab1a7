// Package validator implements the transaction validator:
// an ordered gauntlet of signature completeness, type short-circuits,
// per-input resolution and authorization, value conservation, per-type
// semantic checks, the copyright state-machine table, and the
// address-ownership invariant. Validation is pure: it reads chain state
// through cpcstate but never mutates it, and performs no I/O.
package validator

import (
	"fmt"
	"time"

	"github.com/cpc-chain/cpcd/pkg/copyright"
	"github.com/cpc-chain/cpcd/pkg/cpccrypto"
	"github.com/cpc-chain/cpcd/pkg/cpcstate"
	"github.com/cpc-chain/cpcd/pkg/cpctx"
	"github.com/cpc-chain/cpcd/pkg/script"
)

// Reason is the closed set of rejection categories.
type Reason string

const (
	MissingSignature          Reason = "missing_signature"
	BadSignature               Reason = "bad_signature"
	SpentOrUnknown              Reason = "spent_or_unknown"
	LockedOrExpired             Reason = "locked_or_expired"
	ValueImbalance              Reason = "value_imbalance"
	TypeRuleViolation           Reason = "type_rule_violation"
	StateMachineViolation       Reason = "state_machine_violation"
	AddressOwnershipViolation   Reason = "address_ownership_violation"
	RightsScopeViolation        Reason = "rights_scope_violation"
	FaucetOverdraw              Reason = "faucet_overdraw"
)

// Error is the typed, single-line rejection the validator returns.
type Error struct {
	Reason Reason
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func reject(reason Reason, format string, args ...interface{}) *Error {
	return &Error{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// FaucetCap is the per-transaction cap a faucet transaction's outputs may
// not exceed.
const FaucetCap = 10

// allowedTransitions is the copyright-lifecycle state-machine table.
var allowedTransitions = map[copyright.Type][]copyright.Type{
	copyright.Sovereignty: {copyright.Sovereignty, copyright.Instruction},
	copyright.Instruction: {copyright.Proof},
	copyright.Proof:       {copyright.Proof, copyright.Secondary},
	copyright.Secondary:   {},
}

func transitionAllowed(from, to copyright.Type) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Validator validates transactions against a chain's re-derived UTXO state.
type Validator struct {
	engine *cpcstate.Engine
}

// New builds a validator backed by the given state engine.
func New(engine *cpcstate.Engine) *Validator {
	return &Validator{engine: engine}
}

// resolvedInput pairs an input with the UTXO it resolves to.
type resolvedInput struct {
	input *cpctx.Input
	utxo  *cpctx.UTXO
}

// Validate runs the full gauntlet against tx. now is the logical validation
// time used for payload-expiry and time-lock checks.
func (v *Validator) Validate(tx *cpctx.Transaction, chain cpcstate.ChainReader, now time.Time) (bool, *Error) {
	// Step 0 — signature completeness.
	for idx, in := range tx.Inputs {
		if len(in.RequiredSigners) == 0 {
			continue
		}
		if !in.IsFullySigned() {
			missing := in.UnsignedSigners()
			return false, reject(MissingSignature, "input %d missing signatures from %v", idx, missing)
		}
	}

	// Step 1 — type-specific short-circuits.
	switch tx.Type {
	case cpctx.Faucet:
		if len(tx.Inputs) != 0 {
			return false, reject(TypeRuleViolation, "faucet transaction must have no inputs")
		}
		if cpctx.OutputSum(tx.Outputs) > FaucetCap {
			return false, reject(FaucetOverdraw, "faucet output sum %.8f exceeds cap %d", cpctx.OutputSum(tx.Outputs), FaucetCap)
		}
		return true, nil
	case cpctx.CopyrightRegister:
		if len(tx.Inputs) == 0 {
			return false, reject(TypeRuleViolation, "copyright_register requires at least one input")
		}
		if !hasOutput(tx, func(o *cpctx.Output) bool {
			return o.Kind == cpctx.KindCopyright && o.Payload != nil && o.Payload.WorkHash != "" && o.Payload.CopyrightType == copyright.Sovereignty
		}) {
			return false, reject(TypeRuleViolation, "copyright_register requires a sovereignty-typed copyright output with a work_hash")
		}
	}

	// Step 2 — per-input resolution and authorization.
	resolved := make([]resolvedInput, len(tx.Inputs))
	for idx, in := range tx.Inputs {
		utxo, ok := v.engine.Get(chain, in.Outpoint)
		if !ok {
			return false, reject(SpentOrUnknown, "input %d references %s", idx, in.Outpoint.String())
		}
		resolved[idx] = resolvedInput{input: in, utxo: utxo}

		var presentedSigners []string
		for addr, sig := range in.Signatures {
			if !cpccrypto.VerifySignature(addr, sig, tx.TxID) {
				return false, reject(BadSignature, "input %d signature from %s failed verification", idx, addr)
			}
			presentedSigners = append(presentedSigners, addr)
		}

		decoded, err := script.Decode(utxo.Script)
		if err != nil {
			return false, reject(LockedOrExpired, "input %d has an undecodable script: %v", idx, err)
		}
		var endTime *time.Time
		if utxo.Kind == cpctx.KindCopyright && utxo.Payload != nil {
			t := utxo.Payload.Expiry()
			endTime = &t
		}
		if !decoded.CanSpend(now, presentedSigners, endTime) {
			return false, reject(LockedOrExpired, "input %d (%s) is not spendable at %s", idx, in.Outpoint.String(), now.Format(time.RFC3339))
		}
	}

	// Step 3 — value conservation (faucet already accepted above).
	inSum := cpctx.InputSum(tx.Inputs, func(op cpctx.Outpoint) (float64, bool) {
		for _, r := range resolved {
			if r.input.Outpoint == op {
				return r.utxo.Amount, true
			}
		}
		return 0, false
	})
	outSum := cpctx.OutputSum(tx.Outputs)
	if inSum < outSum {
		return false, reject(ValueImbalance, "inputs %.8f < outputs %.8f", inSum, outSum)
	}

	// Step 4 — per-type semantic checks.
	if err := v.checkTypeSemantics(tx, resolved, now); err != nil {
		return false, err
	}

	// Step 5 — state-machine table, over every copyright input/output pair
	// sharing a work_hash.
	for _, r := range resolved {
		if r.utxo.Kind != cpctx.KindCopyright || r.utxo.Payload == nil {
			continue
		}
		from := r.utxo.Payload.CopyrightType
		for _, out := range tx.Outputs {
			if out.Kind != cpctx.KindCopyright || out.Payload == nil {
				continue
			}
			if out.Payload.WorkHash != r.utxo.Payload.WorkHash {
				continue
			}
			to := out.Payload.CopyrightType
			if !transitionAllowed(from, to) {
				return false, reject(StateMachineViolation, "%s -> %s is not an allowed transition", from, to)
			}
		}
	}

	// Step 6 — address-ownership invariant.
	if err := v.checkAddressOwnership(tx, resolved); err != nil {
		return false, err
	}

	return true, nil
}

func hasOutput(tx *cpctx.Transaction, pred func(*cpctx.Output) bool) bool {
	for _, o := range tx.Outputs {
		if pred(o) {
			return true
		}
	}
	return false
}

func copyrightInputsOfType(resolved []resolvedInput, t copyright.Type) []resolvedInput {
	var out []resolvedInput
	for _, r := range resolved {
		if r.utxo.Kind == cpctx.KindCopyright && r.utxo.Payload != nil && r.utxo.Payload.CopyrightType == t {
			out = append(out, r)
		}
	}
	return out
}

func copyrightOutputsOfType(tx *cpctx.Transaction, t copyright.Type) []*cpctx.Output {
	var out []*cpctx.Output
	for _, o := range tx.Outputs {
		if o.Kind == cpctx.KindCopyright && o.Payload != nil && o.Payload.CopyrightType == t {
			out = append(out, o)
		}
	}
	return out
}

func (v *Validator) checkTypeSemantics(tx *cpctx.Transaction, resolved []resolvedInput, now time.Time) *Error {
	switch tx.Type {
	case cpctx.AuthorizationLock:
		sovereigntyInputs := copyrightInputsOfType(resolved, copyright.Sovereignty)
		if len(sovereigntyInputs) == 0 {
			return reject(TypeRuleViolation, "authorization_lock requires a sovereignty-typed input")
		}
		instructionOutputs := copyrightOutputsOfType(tx, copyright.Instruction)
		if len(instructionOutputs) == 0 {
			return reject(TypeRuleViolation, "authorization_lock requires an instruction-typed output")
		}

	case cpctx.AuthorizationActivate:
		instructionInputs := copyrightInputsOfType(resolved, copyright.Instruction)
		if len(instructionInputs) == 0 {
			return reject(TypeRuleViolation, "authorization_activate requires an instruction-typed input")
		}
		for _, r := range instructionInputs {
			if r.utxo.Payload.IsExpired(now) {
				return reject(LockedOrExpired, "instruction input for work_hash %s is expired", r.utxo.Payload.WorkHash)
			}
		}
		proofOutputs := copyrightOutputsOfType(tx, copyright.Proof)
		if len(proofOutputs) == 0 {
			return reject(TypeRuleViolation, "authorization_activate requires a proof-typed output")
		}
		matched := false
		for _, in := range instructionInputs {
			for _, out := range proofOutputs {
				if out.Payload.WorkHash == in.utxo.Payload.WorkHash {
					matched = true
				}
			}
		}
		if !matched {
			return reject(TypeRuleViolation, "authorization_activate proof output work_hash must match the instruction input")
		}

	case cpctx.Renewal:
		proofInputs := copyrightInputsOfType(resolved, copyright.Proof)
		if len(proofInputs) == 0 {
			return reject(TypeRuleViolation, "renewal requires a proof-typed input")
		}
		for _, r := range proofInputs {
			if r.utxo.Payload.IsExpired(now) {
				return reject(LockedOrExpired, "proof input for work_hash %s is expired", r.utxo.Payload.WorkHash)
			}
		}
		proofOutputs := copyrightOutputsOfType(tx, copyright.Proof)
		if len(proofOutputs) == 0 {
			return reject(TypeRuleViolation, "renewal requires a new proof-typed output")
		}

	case cpctx.SubLicense:
		proofInputs := copyrightInputsOfType(resolved, copyright.Proof)
		if len(proofInputs) == 0 {
			return reject(TypeRuleViolation, "sub_license requires a proof-typed (parent) input")
		}
		var rebuiltProof *cpctx.Output
		var secondaryOutputs []*cpctx.Output
		for _, out := range tx.Outputs {
			if out.Kind != cpctx.KindCopyright || out.Payload == nil {
				continue
			}
			switch out.Payload.CopyrightType {
			case copyright.Proof:
				if out.Payload.ParentOutpoint == nil {
					rebuiltProof = out
				}
			case copyright.Secondary:
				if out.Payload.ParentOutpoint != nil {
					secondaryOutputs = append(secondaryOutputs, out)
				}
			}
		}
		if rebuiltProof == nil {
			return reject(TypeRuleViolation, "sub_license requires a rebuilt proof output for the parent")
		}
		if len(secondaryOutputs) == 0 {
			return reject(TypeRuleViolation, "sub_license requires at least one secondary output")
		}
		var parent *cpctx.UTXO
		for _, r := range proofInputs {
			if r.utxo.Payload.WorkHash == rebuiltProof.Payload.WorkHash {
				parent = r.utxo
			}
		}
		if parent == nil {
			return reject(TypeRuleViolation, "sub_license rebuilt proof work_hash must match the parent input")
		}
		var unionScope []string
		for _, s := range secondaryOutputs {
			unionScope = append(unionScope, s.Payload.RightsScope...)
		}
		if !copyright.IsSubsetOf(unionScope, parent.Payload.RightsScope) {
			return reject(RightsScopeViolation, "secondary rights %v are not a subset of parent rights %v", unionScope, parent.Payload.RightsScope)
		}
	}
	return nil
}

func (v *Validator) checkAddressOwnership(tx *cpctx.Transaction, resolved []resolvedInput) *Error {
	switch tx.Type {
	case cpctx.AuthorizationLock:
		for _, r := range copyrightInputsOfType(resolved, copyright.Sovereignty) {
			for _, out := range copyrightOutputsOfType(tx, copyright.Sovereignty) {
				if out.Payload.WorkHash == r.utxo.Payload.WorkHash && out.Address != r.utxo.Address {
					return reject(AddressOwnershipViolation, "authorization_lock: rebuilt sovereignty output address %s != input address %s", out.Address, r.utxo.Address)
				}
			}
		}

	case cpctx.Renewal:
		for _, r := range copyrightInputsOfType(resolved, copyright.Sovereignty) {
			for _, out := range copyrightOutputsOfType(tx, copyright.Sovereignty) {
				if out.Payload.WorkHash == r.utxo.Payload.WorkHash && out.Address != r.utxo.Address {
					return reject(AddressOwnershipViolation, "renewal: rebuilt sovereignty output address %s != input address %s", out.Address, r.utxo.Address)
				}
			}
		}
		for _, r := range copyrightInputsOfType(resolved, copyright.Proof) {
			for _, out := range copyrightOutputsOfType(tx, copyright.Proof) {
				if out.Payload.WorkHash == r.utxo.Payload.WorkHash && out.Address != r.utxo.Address {
					return reject(AddressOwnershipViolation, "renewal: rebuilt proof output address %s != input address %s", out.Address, r.utxo.Address)
				}
			}
		}

	case cpctx.SubLicense:
		for _, r := range copyrightInputsOfType(resolved, copyright.Proof) {
			for _, out := range tx.Outputs {
				if out.Kind != cpctx.KindCopyright || out.Payload == nil {
					continue
				}
				if out.Payload.CopyrightType != copyright.Proof || out.Payload.ParentOutpoint != nil {
					continue
				}
				if out.Payload.WorkHash == r.utxo.Payload.WorkHash && out.Address != r.utxo.Address {
					return reject(AddressOwnershipViolation, "sub_license: rebuilt proof output address %s != parent address %s", out.Address, r.utxo.Address)
				}
			}
		}

	case cpctx.AuthorizationActivate:
		for _, r := range copyrightInputsOfType(resolved, copyright.Instruction) {
			for _, out := range copyrightOutputsOfType(tx, copyright.Proof) {
				if out.Payload.WorkHash == r.utxo.Payload.WorkHash && out.Address != r.utxo.Address {
					return reject(AddressOwnershipViolation, "authorization_activate: proof output address %s != instruction address %s", out.Address, r.utxo.Address)
				}
			}
		}
	}
	return nil
}
