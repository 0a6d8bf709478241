package vault

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

//go:embed idl/vault.json
var embeddedIDL []byte

// Account names used by the vault program's IDL.
const (
	accountUser          = "user"
	accountVaultState    = "vault_state"
	accountVault         = "vault"
	accountSystemProgram = "system_program"
)

type idlDocument struct {
	Address      string           `json:"address"`
	Instructions []idlInstruction `json:"instructions"`
}

type idlInstruction struct {
	Name          string       `json:"name"`
	Discriminator []int        `json:"discriminator"`
	Accounts      []idlAccount `json:"accounts"`
	Args          []idlArg     `json:"args"`
}

type idlAccount struct {
	Name     string `json:"name"`
	Writable bool   `json:"writable"`
	Signer   bool   `json:"signer"`
	Address  string `json:"address"`
}

type idlArg struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type accountLayout struct {
	Name     string
	Writable bool
	Signer   bool
	Address  solana.PublicKey
}

type instructionLayout struct {
	Discriminator [8]byte
	Accounts      []accountLayout
}

// Program is the parsed program descriptor: its identifier and the wire
// layout of the four vault instructions.
type Program struct {
	ID      solana.PublicKey
	layouts map[Kind]instructionLayout
}

// DefaultProgram parses the IDL compiled into the binary. The descriptor is
// fixed at build time.
func DefaultProgram() *Program {
	p, err := LoadProgram(embeddedIDL)
	if err != nil {
		panic(err)
	}
	return p
}

// LoadProgram parses an Anchor IDL document.
func LoadProgram(data []byte) (*Program, error) {
	var doc idlDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}

	id, err := solana.PublicKeyFromBase58(doc.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: address: %w", ErrInvalidDescriptor, err)
	}

	byName := make(map[string]idlInstruction, len(doc.Instructions))
	for _, ix := range doc.Instructions {
		byName[ix.Name] = ix
	}

	p := &Program{ID: id, layouts: make(map[Kind]instructionLayout, 4)}
	for _, kind := range []Kind{KindCreate, KindDeposit, KindWithdraw, KindClose} {
		ix, ok := byName[kind.InstructionName()]
		if !ok {
			return nil, fmt.Errorf("%w: missing instruction %q", ErrInvalidDescriptor, kind.InstructionName())
		}
		layout, err := parseInstruction(kind, ix)
		if err != nil {
			return nil, err
		}
		p.layouts[kind] = layout
	}

	return p, nil
}

func parseInstruction(kind Kind, ix idlInstruction) (instructionLayout, error) {
	var layout instructionLayout

	if len(ix.Discriminator) != len(layout.Discriminator) {
		return layout, fmt.Errorf("%w: %s: discriminator must be 8 bytes", ErrInvalidDescriptor, ix.Name)
	}
	for i, b := range ix.Discriminator {
		if b < 0 || b > 255 {
			return layout, fmt.Errorf("%w: %s: discriminator byte %d out of range", ErrInvalidDescriptor, ix.Name, b)
		}
		layout.Discriminator[i] = byte(b)
	}

	wantArgs := 0
	if kind.HasAmount() {
		wantArgs = 1
	}
	if len(ix.Args) != wantArgs || (wantArgs == 1 && ix.Args[0].Type != "u64") {
		return layout, fmt.Errorf("%w: %s: unexpected args %v", ErrInvalidDescriptor, ix.Name, ix.Args)
	}

	for _, acc := range ix.Accounts {
		a := accountLayout{Name: acc.Name, Writable: acc.Writable, Signer: acc.Signer}
		switch acc.Name {
		case accountUser, accountVaultState, accountVault:
		case accountSystemProgram:
			a.Address = solana.SystemProgramID
			if acc.Address != "" {
				addr, err := solana.PublicKeyFromBase58(acc.Address)
				if err != nil {
					return layout, fmt.Errorf("%w: %s.%s: %w", ErrInvalidDescriptor, ix.Name, acc.Name, err)
				}
				a.Address = addr
			}
		default:
			return layout, fmt.Errorf("%w: %s: unknown account %q", ErrInvalidDescriptor, ix.Name, acc.Name)
		}
		layout.Accounts = append(layout.Accounts, a)
	}

	return layout, nil
}

// Discriminator returns the 8-byte instruction tag for kind.
func (p *Program) Discriminator(kind Kind) ([8]byte, bool) {
	l, ok := p.layouts[kind]
	return l.Discriminator, ok
}

// Instruction builds the program instruction for r acting as identity.
func (p *Program) Instruction(r Request, identity solana.PublicKey, pair AddressPair) (solana.Instruction, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	layout, ok := p.layouts[r.Kind]
	if !ok {
		return nil, fmt.Errorf("no layout for %s", r.Kind)
	}

	buf := new(bytes.Buffer)
	buf.Write(layout.Discriminator[:])
	if r.Kind.HasAmount() {
		if err := bin.NewBorshEncoder(buf).Encode(r.Amount); err != nil {
			return nil, fmt.Errorf("encode amount: %w", err)
		}
	}

	metas := make(solana.AccountMetaSlice, 0, len(layout.Accounts))
	for _, acc := range layout.Accounts {
		var key solana.PublicKey
		switch acc.Name {
		case accountUser:
			key = identity
		case accountVaultState:
			key = pair.State
		case accountVault:
			key = pair.Funds
		default:
			key = acc.Address
		}
		metas = append(metas, solana.NewAccountMeta(key, acc.Writable, acc.Signer))
	}

	return solana.NewInstruction(p.ID, metas, buf.Bytes()), nil
}

// BuildTransaction wraps the instruction for r in an unsigned transaction
// paid for by identity.
func (p *Program) BuildTransaction(r Request, identity solana.PublicKey, pair AddressPair, recent solana.Hash) (*solana.Transaction, error) {
	ix, err := p.Instruction(r, identity, pair)
	if err != nil {
		return nil, err
	}
	return solana.NewTransaction([]solana.Instruction{ix}, recent, solana.TransactionPayer(identity))
}
