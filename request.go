package keymaster

import "fmt"

// Operation is the single vault operation requested by an invocation.
type Operation int

const (
	Store Operation = iota
	Fetch
	Erase
)

// Verb returns the command line verb selecting the operation.
func (o Operation) Verb() string {
	switch o {
	case Store:
		return "set"
	case Fetch:
		return "get"
	case Erase:
		return "delete"
	default:
		return "unknown"
	}
}

func (o Operation) String() string {
	return o.Verb()
}

// ParseOperation maps a command line verb to its Operation.
func ParseOperation(verb string) (Operation, error) {
	switch verb {
	case "set":
		return Store, nil
	case "get":
		return Fetch, nil
	case "delete":
		return Erase, nil
	}
	return 0, UsageError(fmt.Sprintf("unknown verb %q", verb), nil)
}

// Request is one parsed invocation.
type Request struct {
	Operation Operation
	Key       string
	// Payload is only set for Store.
	Payload []byte
}

// NewRequest validates the invocation arguments: a verb, a key and, for
// Store only, an optional secret. Store without a secret stores the empty
// string.
func NewRequest(verb string, args []string) (*Request, error) {
	op, err := ParseOperation(verb)
	if err != nil {
		return nil, err
	}

	maxArgs := 1
	if op == Store {
		maxArgs = 2
	}
	if len(args) < 1 || len(args) > maxArgs {
		return nil, UsageError(
			fmt.Sprintf("%s expects between 1 and %d arguments, got %d", verb, maxArgs, len(args)), nil)
	}
	if args[0] == "" {
		return nil, UsageError("invalid key", ErrEmptyKey)
	}

	req := &Request{Operation: op, Key: args[0]}
	if op == Store {
		req.Payload = []byte{}
		if len(args) == 2 {
			req.Payload = []byte(args[1])
		}
	}
	return req, nil
}

// Reason is the human readable text shown by the authentication prompt.
func (r *Request) Reason() string {
	switch r.Operation {
	case Store:
		return "Set the secret for " + r.Key
	case Fetch:
		return "Access the secret for " + r.Key
	default:
		return "Delete the secret for " + r.Key
	}
}
