package ls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/declist/pkg/entry"
	"tableflip.dev/declist/pkg/printers"
	"tableflip.dev/declist/pkg/store"
)

// List prints one collection, or every collection when Collection is empty.
type List struct {
	Collection  string
	ShowID      bool
	JSON        bool
	Out         io.Writer
	Persistence store.Persistence
}

func (n *List) out() io.Writer {
	if n.Out != nil {
		return n.Out
	}
	return color.Output
}

func (n *List) Do(ctx context.Context) error {
	if n.Persistence == nil {
		return errors.New("can not list, no persistence")
	}

	collections := []string{n.Collection}
	if n.Collection == "" {
		collections = n.Persistence.Collections(ctx)
	}

	if n.JSON {
		out := make(map[string][]*entry.Entry, len(collections))
		for _, c := range collections {
			out[c] = n.Persistence.List(ctx, c)
		}
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(n.out(), string(b))
		return nil
	}

	pp := printers.PrettyPrint{ShowID: n.ShowID, Out: n.out()}
	pp.NewLine()
	for _, c := range collections {
		all := n.Persistence.List(ctx, c)
		pp.TitleWithCount(c, len(all))
		pp.Collection(all...)
	}
	return nil
}
