package table

import (
	"fmt"
	"net/url"
)

type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionView, ActionEdit, ActionDelete:
		return a, nil
	default:
		return "", fmt.Errorf("unknown row action %q", s)
	}
}

type IntentKind int

const (
	IntentNavigate IntentKind = iota
	IntentConfirm
)

// Intent is what a row action resolves to: a route to open or a
// confirmation request waiting for the user
type Intent struct {
	Kind    IntentKind
	Route   string
	Request *ConfirmationRequest
}

// Dispatcher routes row actions. It holds no mutator: delete can only ever
// produce a confirmation request.
type Dispatcher struct {
	basePath string
	confirm  func(id string) (*ConfirmationRequest, error)
}

func NewDispatcher(basePath string, confirm func(id string) (*ConfirmationRequest, error)) *Dispatcher {
	return &Dispatcher{basePath: basePath, confirm: confirm}
}

func (d *Dispatcher) Dispatch(action Action, id string) (Intent, error) {
	escaped := url.PathEscape(id)

	switch action {
	case ActionView:
		return Intent{Kind: IntentNavigate, Route: d.basePath + "/" + escaped}, nil
	case ActionEdit:
		return Intent{Kind: IntentNavigate, Route: d.basePath + "/" + escaped + "/edit"}, nil
	case ActionDelete:
		req, err := d.confirm(id)
		if err != nil {
			return Intent{}, err
		}
		return Intent{Kind: IntentConfirm, Request: req}, nil
	default:
		return Intent{}, fmt.Errorf("unknown row action %q", action)
	}
}
