package table

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"

	"github.com/mysnackdev/mysnack-storefront/internal/backend"
	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

type mallLookup interface {
	MallLookup(ctx context.Context, storeID string) (backend.MallInfo, error)
}

// Resolver produces table identities without a camera: the bypass path looks
// up the store's parent venue upstream and synthesizes a deterministic test
// table, so repeated runs against the same store land on the same table.
type Resolver struct {
	backend mallLookup
	logger  *log.Logger
}

func NewResolver(b mallLookup, logger *log.Logger) *Resolver {
	return &Resolver{backend: b, logger: logger}
}

// ResolveBypass returns the same Table shape the QR path produces, so
// checkout never knows which resolution was used.
func (r *Resolver) ResolveBypass(ctx context.Context, storeID string) (domain.Table, error) {
	info, err := r.backend.MallLookup(ctx, storeID)
	if err != nil {
		return domain.Table{}, fmt.Errorf("mall lookup: %w", err)
	}

	h := fnv.New32a()
	h.Write([]byte(storeID))
	number := fmt.Sprintf("mesa-teste-%03d", h.Sum32()%1000)

	return domain.Table{
		MallID:  info.MallID,
		StoreID: storeID,
		Number:  number,
		Label:   info.Name,
		Source:  domain.TableSourceBypass,
	}, nil
}
