package client

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// Chain is a sequence of dependent transactions driven by one caller, usually for one account.
type Chain func(ctx context.Context) error

// RunChains runs independent chains concurrently. A failing chain does not stop the others;
// all errors are joined.
func RunChains(ctx context.Context, chains ...Chain) error {
	p := pool.New().WithErrors().WithContext(ctx)
	for _, chain := range chains {
		p.Go(func(ctx context.Context) error {
			return chain(ctx)
		})
	}
	return p.Wait()
}
