package domain

import "errors"

var ErrInfusionEmpty = errors.New("infusion selection is empty")

// InfusionSelection is one entry of the flat selection queue the UI
// produces: a single NFT instance of a carbon token.
type InfusionSelection struct {
	TokenID    string
	InstanceID string
}

// InfusionGroup aggregates selected instances of one carbon token so a
// batched transfer can move them in a single call.
type InfusionGroup struct {
	TokenID     string
	InstanceIDs []string
}

// GroupInfusions folds a flat selection queue into one group per
// distinct token, preserving first-seen token order and the selection
// order of instances within each token.
func GroupInfusions(selections []InfusionSelection) ([]InfusionGroup, error) {
	if len(selections) == 0 {
		return nil, ErrInfusionEmpty
	}

	index := make(map[string]int, len(selections))
	groups := make([]InfusionGroup, 0, len(selections))

	for _, sel := range selections {
		i, ok := index[sel.TokenID]
		if !ok {
			i = len(groups)
			index[sel.TokenID] = i
			groups = append(groups, InfusionGroup{TokenID: sel.TokenID})
		}
		groups[i].InstanceIDs = append(groups[i].InstanceIDs, sel.InstanceID)
	}

	return groups, nil
}
