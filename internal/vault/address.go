package vault

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Seeds of the two program-derived addresses. They are part of the on-chain
// program's contract and must match it byte for byte.
var (
	StateSeed = []byte("state")
	VaultSeed = []byte("vault")
)

// AddressPair holds the addresses of one identity's vault.
type AddressPair struct {
	// State is the vault state record, derived from the identity.
	State     solana.PublicKey
	StateBump uint8

	// Funds holds the deposited lamports, derived from State.
	Funds     solana.PublicKey
	FundsBump uint8
}

// Derive computes the AddressPair for identity under programID. It is pure
// and deterministic; any client with the same inputs gets the same pair.
func Derive(identity, programID solana.PublicKey) AddressPair {
	state, stateBump, err := solana.FindProgramAddress([][]byte{StateSeed, identity.Bytes()}, programID)
	if err != nil {
		// FindProgramAddress only fails when all 256 bumps land on the curve.
		panic(fmt.Errorf("%w: state: %v", ErrDerivation, err))
	}

	funds, fundsBump, err := solana.FindProgramAddress([][]byte{VaultSeed, state.Bytes()}, programID)
	if err != nil {
		panic(fmt.Errorf("%w: vault: %v", ErrDerivation, err))
	}

	return AddressPair{
		State:     state,
		StateBump: stateBump,
		Funds:     funds,
		FundsBump: fundsBump,
	}
}
