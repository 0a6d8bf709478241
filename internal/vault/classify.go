package vault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// ReasonKind is the user-facing category of a failed operation.
type ReasonKind int

const (
	ReasonGeneric ReasonKind = iota
	ReasonAlreadyInitialized
)

// Reason is a classified failure.
type Reason struct {
	Kind ReasonKind
	// Message is the best human-readable text of the raw failure.
	Message string
}

func (r Reason) String() string {
	if r.Kind == ReasonAlreadyInitialized {
		return "Vault already initialized for this wallet."
	}
	return r.Message
}

const alreadyInUse = "already in use"

// logCarrier is implemented by ledger errors that keep the program logs of
// a failed simulation.
type logCarrier interface {
	Logs() []string
}

// Classify maps any failure to a Reason. It never panics and always yields a
// non-empty message.
func Classify(err error) Reason {
	if err == nil {
		return Reason{Kind: ReasonGeneric, Message: "unknown error"}
	}

	msg := message(err)
	if strings.Contains(strings.ToLower(details(err, msg)), alreadyInUse) {
		return Reason{Kind: ReasonAlreadyInitialized, Message: msg}
	}
	return Reason{Kind: ReasonGeneric, Message: msg}
}

// classifyFor narrows Classify to the operation: "already in use" only means
// an existing vault on the create path.
func classifyFor(kind Kind, err error) Reason {
	r := Classify(err)
	if r.Kind == ReasonAlreadyInitialized && kind != KindCreate {
		r.Kind = ReasonGeneric
	}
	return r
}

func message(err error) (msg string) {
	defer func() {
		if p := recover(); p != nil {
			msg = fmt.Sprintf("%#v", err)
		}
	}()

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) && strings.TrimSpace(rpcErr.Message) != "" {
		return rpcErr.Message
	}
	if s := strings.TrimSpace(err.Error()); s != "" {
		return err.Error()
	}
	return fmt.Sprintf("%#v", err)
}

func details(err error, msg string) string {
	var b strings.Builder
	b.WriteString(msg)

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Data != nil {
		fmt.Fprintf(&b, " %v", rpcErr.Data)
	}

	var lc logCarrier
	if errors.As(err, &lc) {
		for _, line := range lc.Logs() {
			b.WriteByte(' ')
			b.WriteString(line)
		}
	}

	return b.String()
}
