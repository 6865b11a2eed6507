package rm

import (
	"context"
	"errors"

	"tableflip.dev/declist/pkg/printers"
	"tableflip.dev/declist/pkg/store"
)

// Remove deletes an entry.
type Remove struct {
	ID          string
	Persistence store.Persistence
	Printer     *printers.PrettyPrint
}

func (n *Remove) Do(ctx context.Context) error {
	if n.Persistence == nil {
		return errors.New("can not remove, no persistence")
	}

	e, err := n.Persistence.Get(ctx, n.ID)
	if err != nil {
		return err
	}
	if err := n.Persistence.Delete(e); err != nil {
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
