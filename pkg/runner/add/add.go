package add

import (
	"context"
	"errors"
	"time"

	"tableflip.dev/declist/pkg/entry"
	"tableflip.dev/declist/pkg/printers"
	"tableflip.dev/declist/pkg/store"
)

type Add struct {
	Collection string
	Message    string

	Persistence store.Persistence
	Printer     *printers.PrettyPrint
}

const (
	layoutUS = "January 2, 2006"
)

func (n *Add) Do(ctx context.Context) error {
	if n.Collection == "today" {
		n.Collection = time.Now().Format(layoutUS)
	}
	if n.Message == "" {
		return errors.New("can not add, empty message")
	}

	e := entry.New(n.Collection, n.Message)

	pp := n.Printer
	if pp == nil {
		pp = &printers.PrettyPrint{}
	}
	pp.Title(e.Collection)
	if n.Persistence != nil {
		if err := n.Persistence.Store(e); err != nil {
			return err
		}
		all := n.Persistence.List(ctx, e.Collection)
		pp.Collection(all...)
	} else {
		pp.Collection(e)
	}

	return nil
}
