package txbuilder

import (
	"math/big"
	"regexp"

	"carbonmint/internal/chain/txcodec"
	"carbonmint/internal/domain"
)

var instanceIDPattern = regexp.MustCompile(`^[0-9]+$`)

// InfuseParams describes moving selected carbon-token instances from
// the sender into the recipient's custody in one transaction.
type InfuseParams struct {
	Sender    txcodec.Address
	Recipient txcodec.Address
	Groups    []domain.InfusionGroup
	Payload   []byte
}

// Infuse builds the batched transfer transaction. The transaction
// shape depends on the selection's cardinality:
//
//   - one token, one instance: a single-transfer call;
//   - one token, many instances: one multi-instance transfer call;
//   - many tokens: a composite message with exactly one call per
//     distinct token, each carrying its full argument block.
//
// The call count is therefore bounded by the number of distinct
// tokens, never by the number of instances.
func (b *Builder) Infuse(p InfuseParams) (*txcodec.UnsignedTx, error) {
	if p.Sender.IsZero() || p.Recipient.IsZero() {
		return nil, domain.WrapValidation(txcodec.ErrAddressLength)
	}
	if len(p.Groups) == 0 {
		return nil, domain.WrapValidation(domain.ErrInfusionEmpty)
	}

	instances := 0
	parsed := make([][]*big.Int, len(p.Groups))
	for gi, group := range p.Groups {
		if group.TokenID == "" {
			return nil, domain.WrapValidation(ErrSymbolRequired)
		}
		if len(group.InstanceIDs) == 0 {
			return nil, domain.WrapValidation(domain.ErrInfusionEmpty)
		}
		ids := make([]*big.Int, len(group.InstanceIDs))
		for ii, raw := range group.InstanceIDs {
			if !instanceIDPattern.MatchString(raw) {
				return nil, domain.Validationf("token %s: %w: %q", group.TokenID, ErrBadInstanceID, raw)
			}
			id, _ := new(big.Int).SetString(raw, 10)
			ids[ii] = id
		}
		parsed[gi] = ids
		instances += len(ids)
	}

	var w txcodec.ScriptWriter
	b.allowGas(&w, p.Sender, instances)

	switch {
	case len(p.Groups) == 1 && len(parsed[0]) == 1:
		w.PushInteger(parsed[0][0])
		w.PushString(p.Groups[0].TokenID)
		w.PushAddress(p.Recipient)
		w.PushAddress(p.Sender)
		w.Call(tokenContract, "TransferToken", 4)

	case len(p.Groups) == 1:
		pushInstanceList(&w, parsed[0])
		w.PushString(p.Groups[0].TokenID)
		w.PushAddress(p.Recipient)
		w.PushAddress(p.Sender)
		w.Call(tokenContract, "TransferTokens", 4)

	default:
		// One call per distinct token, each with its explicit
		// argument block.
		for gi, group := range p.Groups {
			pushInstanceList(&w, parsed[gi])
			w.PushInteger(big.NewInt(int64(len(parsed[gi]))))
			w.PushString(group.TokenID)
			w.PushAddress(p.Sender)
			w.PushAddress(p.Recipient)
			w.Call(tokenContract, "TransferTokens", 5)
		}
	}

	b.spendGas(&w, p.Sender)
	return b.finish(&w, p.Payload)
}

func pushInstanceList(w *txcodec.ScriptWriter, ids []*big.Int) {
	for i := len(ids) - 1; i >= 0; i-- {
		w.PushInteger(ids[i])
	}
	w.PushInteger(big.NewInt(int64(len(ids))))
}
