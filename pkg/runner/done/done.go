package done

import (
	"context"
	"errors"

	"tableflip.dev/declist/pkg/printers"
	"tableflip.dev/declist/pkg/store"
)

// Done toggles the completion state of an entry.
type Done struct {
	ID          string
	Persistence store.Persistence
	Printer     *printers.PrettyPrint
}

func (n *Done) Do(ctx context.Context) error {
	if n.Persistence == nil {
		return errors.New("can not toggle, no persistence")
	}

	e, err := n.Persistence.Get(ctx, n.ID)
	if err != nil {
		return err
	}
	e.Toggle()
	if err := n.Persistence.Store(e); err != nil {
		return err
	}

	pp := n.Printer
	if pp == nil {
		pp = &printers.PrettyPrint{ShowID: true}
	}
	pp.NewLine()
	pp.Title(e.Collection)
	pp.Collection(n.Persistence.List(ctx, e.Collection)...)
	return nil
}
