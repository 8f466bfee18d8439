package main

import (
	"fmt"

	"shieldcore/addressing"
)

var networksByName = map[string]addressing.NetworkID{
	"mainnet":  addressing.Mainnet,
	"stokenet": addressing.Stokenet,
}

func networkByName(name string) (addressing.NetworkID, error) {
	n, ok := networksByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown network %q (want mainnet|stokenet)", name)
	}
	return n, nil
}
